package core

// Config app config
type Config struct {
	App    App          `json:"app" yaml:"app"`
	Group  GroupParams  `json:"group" yaml:"group"`
	Oracle OracleParams `json:"oracle" yaml:"oracle"`
}

// App process level settings
type App struct {
	Location        string `json:"location" yaml:"location"`
	AccrualInterval string `json:"accrual_interval" yaml:"accrual_interval"`
	ScanInterval    string `json:"scan_interval" yaml:"scan_interval"`
}

// OracleParams static feed configuration, one median per market
type OracleParams struct {
	Medians []uint64 `json:"medians" yaml:"medians"`
}
