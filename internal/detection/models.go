package detection

// Severity grades a triggered rule.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rule names reported on reasons. The family used for summary counts is the
// part before " - ".
const (
	RuleAgeMismatch       = "Age Mismatch"
	RuleClusterEmail      = "Identity Clustering - Email"
	RuleClusterPhone      = "Identity Clustering - Phone"
	RuleClusterDevice     = "Identity Clustering - Device"
	RuleBotTiming         = "Behavioral Pattern - Bot Suspected"
	RuleNetworkConflict   = "Network Fingerprint Conflict"
	BotTimingThresholdMs  = 2000.0
	AgeVarianceThreshold  = 5.0
	SyntheticScoreTrigger = 70
	MaxRiskScore          = 100
)

// Record is one identity submission. UserID is the correlation key.
type Record struct {
	Name     string  `json:"name"`
	DOB      string  `json:"dob"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	FaceAge  float64 `json:"faceAge"`
	DeviceID string  `json:"deviceId"`
	IP       string  `json:"ip"`
	FormTime float64 `json:"formTime"`
	UserID   string  `json:"userId"`
}

// Reason is one triggered rule. Exactly one evidence pointer is set; its
// fields are flattened into the reason when serialized.
type Reason struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Details  string   `json:"details"`

	*AgeEvidence
	*ClusterEvidence
	*TimingEvidence
	*NetworkEvidence
}

type AgeEvidence struct {
	CalculatedAge   int     `json:"calculatedAge"`
	ReportedFaceAge float64 `json:"reportedFaceAge"`
	Variance        float64 `json:"variance"`
}

type ClusterEvidence struct {
	SharedWith  []string `json:"sharedWith"`
	SharedValue string   `json:"sharedValue"`
	Type        string   `json:"type"`
}

type TimingEvidence struct {
	FormTime      float64 `json:"formTime"`
	Threshold     float64 `json:"threshold"`
	TimeInSeconds float64 `json:"timeInSeconds"`
}

type NetworkEvidence struct {
	SharedIP           string   `json:"sharedIp"`
	SharedDeviceID     string   `json:"sharedDeviceId"`
	ConflictingUserIDs []string `json:"conflictingUserIds"`
	ConflictCount      int      `json:"conflictCount"`
}

// Analysis is the detector verdict for one record.
type Analysis struct {
	RiskScore   int      `json:"riskScore"`
	IsSynthetic bool     `json:"isSynthetic"`
	Reasons     []Reason `json:"reasons"`
}

// Result pairs a record with its analysis.
type Result struct {
	Record
	Analysis Analysis `json:"analysis"`
}

// Summary aggregates a batch of results.
type Summary struct {
	TotalRecords     int            `json:"totalRecords"`
	SyntheticCount   int            `json:"syntheticCount"`
	CleanCount       int            `json:"cleanCount"`
	AverageRiskScore int            `json:"averageRiskScore"`
	RulesTriggered   map[string]int `json:"rulesTriggered"`
}
