package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/id"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/royalty"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
	"github.com/xraph/label/types"
)

// ==================== Sequence models ====================

type sequenceModel struct {
	grove.BaseModel `grove:"table:label_sequences"`

	Name  string `grove:"name,pk" bson:"_id"`
	Value int64  `grove:"value"   bson:"value"`
}

// ==================== Artist models ====================

type artistModel struct {
	grove.BaseModel `grove:"table:label_artists"`

	ID              int64     `grove:"id,pk"            bson:"_id"`
	Name            string    `grove:"name"             bson:"name"`
	Address         string    `grove:"address"          bson:"address"`
	TotalInvestment int64     `grove:"total_investment" bson:"total_investment"`
	CreatedAt       time.Time `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"       bson:"updated_at"`
}

func toArtistModel(a *artist.Artist) *artistModel {
	return &artistModel{
		ID:              a.ID,
		Name:            a.Name,
		Address:         a.Address,
		TotalInvestment: a.TotalInvestment,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func fromArtistModel(m *artistModel) *artist.Artist {
	return &artist.Artist{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              m.ID,
		Name:            m.Name,
		Address:         m.Address,
		TotalInvestment: m.TotalInvestment,
	}
}

// ==================== Song models ====================

type songModel struct {
	grove.BaseModel `grove:"table:label_songs"`

	ID        int64     `grove:"id,pk"      bson:"_id"`
	ArtistID  int64     `grove:"artist_id"  bson:"artist_id"`
	Title     string    `grove:"title"      bson:"title"`
	Price     int64     `grove:"price"      bson:"price"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toSongModel(s *song.Song) *songModel {
	return &songModel{
		ID:        s.ID,
		ArtistID:  s.ArtistID,
		Title:     s.Title,
		Price:     s.Price,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func fromSongModel(m *songModel) *song.Song {
	return &song.Song{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       m.ID,
		ArtistID: m.ArtistID,
		Title:    m.Title,
		Price:    m.Price,
	}
}

// ==================== Investment models ====================

// investmentModel is keyed by investment.Key so an upsert can address the
// (investor, artist) pair as a single document.
type investmentModel struct {
	grove.BaseModel `grove:"table:label_investments"`

	Key       string    `grove:"key,pk"     bson:"_id"`
	Investor  string    `grove:"investor"   bson:"investor"`
	ArtistID  int64     `grove:"artist_id"  bson:"artist_id"`
	Amount    int64     `grove:"amount"     bson:"amount"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func fromInvestmentModel(m *investmentModel) *investment.Investment {
	return &investment.Investment{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Investor: m.Investor,
		ArtistID: m.ArtistID,
		Amount:   m.Amount,
	}
}

// ==================== Royalty models ====================

type royaltyModel struct {
	grove.BaseModel `grove:"table:label_royalties"`

	SongID             int64     `grove:"song_id,pk"           bson:"_id"`
	ArtistID           int64     `grove:"artist_id"            bson:"artist_id"`
	Balance            int64     `grove:"balance"              bson:"balance"`
	LastDistributed    int64     `grove:"last_distributed"     bson:"last_distributed"`
	LastDistributionID string    `grove:"last_distribution_id" bson:"last_distribution_id,omitempty"`
	CreatedAt          time.Time `grove:"created_at"           bson:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"           bson:"updated_at"`
}

func fromRoyaltyModel(m *royaltyModel) (*royalty.Balance, error) {
	b := &royalty.Balance{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		SongID:          m.SongID,
		ArtistID:        m.ArtistID,
		Amount:          m.Balance,
		LastDistributed: m.LastDistributed,
	}
	if m.LastDistributionID != "" {
		distID, err := id.ParseDistributionID(m.LastDistributionID)
		if err != nil {
			return nil, fmt.Errorf("parse last distribution id: %w", err)
		}
		b.LastDistributionID = distID
	}
	return b, nil
}

// ==================== Distribution models ====================

type distributionModel struct {
	grove.BaseModel `grove:"table:label_distributions"`

	ID            string    `grove:"id,pk"          bson:"_id"`
	SongID        int64     `grove:"song_id"        bson:"song_id"`
	ArtistID      int64     `grove:"artist_id"      bson:"artist_id"`
	Amount        int64     `grove:"amount"         bson:"amount"`
	DistributedAt time.Time `grove:"distributed_at" bson:"distributed_at"`
}

func toDistributionModel(d *distribution.Distribution) *distributionModel {
	return &distributionModel{
		ID:            d.ID.String(),
		SongID:        d.SongID,
		ArtistID:      d.ArtistID,
		Amount:        d.Amount,
		DistributedAt: d.DistributedAt,
	}
}

func fromDistributionModel(m *distributionModel) (*distribution.Distribution, error) {
	distID, err := id.ParseDistributionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse distribution id: %w", err)
	}
	return &distribution.Distribution{
		ID:            distID,
		SongID:        m.SongID,
		ArtistID:      m.ArtistID,
		Amount:        m.Amount,
		DistributedAt: m.DistributedAt,
	}, nil
}

// ==================== Sale models ====================

type saleModel struct {
	grove.BaseModel `grove:"table:label_sales"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	SongID      int64     `grove:"song_id"      bson:"song_id"`
	ArtistID    int64     `grove:"artist_id"    bson:"artist_id"`
	Buyer       string    `grove:"buyer"        bson:"buyer"`
	Price       int64     `grove:"price"        bson:"price"`
	PurchasedAt time.Time `grove:"purchased_at" bson:"purchased_at"`
}

func toSaleModel(s *sale.Sale) *saleModel {
	return &saleModel{
		ID:          s.ID.String(),
		SongID:      s.SongID,
		ArtistID:    s.ArtistID,
		Buyer:       s.Buyer,
		Price:       s.Price,
		PurchasedAt: s.PurchasedAt,
	}
}

func fromSaleModel(m *saleModel) (*sale.Sale, error) {
	saleID, err := id.ParseSaleID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse sale id: %w", err)
	}
	return &sale.Sale{
		ID:          saleID,
		SongID:      m.SongID,
		ArtistID:    m.ArtistID,
		Buyer:       m.Buyer,
		Price:       m.Price,
		PurchasedAt: m.PurchasedAt,
	}, nil
}
