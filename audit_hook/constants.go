package audithook

// Action constants for audit events.
const (
	// Artist actions
	ActionArtistRegistered = "artist.registered"

	// Song actions
	ActionSongReleased  = "song.released"
	ActionSongPurchased = "song.purchased"

	// Investment actions
	ActionInvestmentRecorded = "investment.recorded"

	// Royalty actions
	ActionRoyaltiesDistributed = "royalties.distributed"
	ActionDistributionRejected = "distribution.rejected"

	// Journal actions
	ActionSalesFlushed = "sales.flushed"

	// Ledger actions
	ActionLedgerReset = "ledger.reset"
)

// Resource constants for audit events.
const (
	ResourceArtist     = "artist"
	ResourceSong       = "song"
	ResourceInvestment = "investment"
	ResourceRoyalty    = "royalty"
	ResourceJournal    = "journal"
	ResourceLedger     = "ledger"
)

// Category constants for audit events.
const (
	CategoryCatalog = "catalog"
	CategoryFunding = "funding"
	CategorySales   = "sales"
	CategoryPayout  = "payout"
	CategorySystem  = "system"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
