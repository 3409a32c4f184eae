package constants

const (
	AppName            = "probeword"
	DefaultKeyringUser = "database-connection"
	DefaultStorePath   = "~/.config/probeword/responses.db"
	Version            = "v0.3.0"

	// TimestampFormat is the format used for the timestamp column (RFC 3339,
	// second precision, always UTC).
	TimestampFormat = "2006-01-02T15:04:05Z07:00"

	// Answer scale bounds shared by the self-report and prediction stages.
	ScaleMin = 0
	ScaleMax = 100

	// Default experiment policy. These mirror the instrument the tool was
	// built for and can be overridden by an experiment config file.
	DefaultNarrowRadius   = 3
	DefaultWideRadius     = 6
	DefaultNarrowPoints   = 20
	DefaultWidePoints     = 10
	DefaultPointsRate     = 0.7
	DefaultBaseFee        = 10.0
	Currency              = "RMB"
	DefaultRandomizeOrder = true
	DefaultConsentEnabled = true

	// Canonical identity column names.
	ColParticipantID = "participant_id"
	ColTimestamp     = "timestamp"
	ColWeChatID      = "wechat_id"
	ColConsent       = "consent_confirmed"
	ColConsentShare  = "consent_share"
)
