package sqlite

import (
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

	Name  string `grove:"name,pk"`
	Value int64  `grove:"value"`
}

// ==================== Artist models ====================

type artistModel struct {
	grove.BaseModel `grove:"table:label_artists"`

	ID              int64     `grove:"id,pk"`
	Name            string    `grove:"name"`
	Address         string    `grove:"address"`
	TotalInvestment int64     `grove:"total_investment"`
	CreatedAt       time.Time `grove:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"`
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

	ID        int64     `grove:"id,pk"`
	ArtistID  int64     `grove:"artist_id"`
	Title     string    `grove:"title"`
	Price     int64     `grove:"price"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
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

type investmentModel struct {
	grove.BaseModel `grove:"table:label_investments"`

	Investor  string    `grove:"investor,pk"`
	ArtistID  int64     `grove:"artist_id,pk"`
	Amount    int64     `grove:"amount"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
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

	SongID             int64     `grove:"song_id,pk"`
	ArtistID           int64     `grove:"artist_id"`
	Balance            int64     `grove:"balance"`
	LastDistributed    int64     `grove:"last_distributed"`
	LastDistributionID string    `grove:"last_distribution_id"`
	CreatedAt          time.Time `grove:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"`
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
			return nil, err
		}
		b.LastDistributionID = distID
	}
	return b, nil
}

// ==================== Distribution models ====================

type distributionModel struct {
	grove.BaseModel `grove:"table:label_distributions"`

	ID            string    `grove:"id,pk"`
	SongID        int64     `grove:"song_id"`
	ArtistID      int64     `grove:"artist_id"`
	Amount        int64     `grove:"amount"`
	DistributedAt time.Time `grove:"distributed_at"`
}

func fromDistributionModel(m *distributionModel) (*distribution.Distribution, error) {
	distID, err := id.ParseDistributionID(m.ID)
	if err != nil {
		return nil, err
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

	ID          string    `grove:"id,pk"`
	SongID      int64     `grove:"song_id"`
	ArtistID    int64     `grove:"artist_id"`
	Buyer       string    `grove:"buyer"`
	Price       int64     `grove:"price"`
	PurchasedAt time.Time `grove:"purchased_at"`
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
		return nil, err
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
