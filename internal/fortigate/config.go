package fortigate

import "time"

// Config holds the appliance connection settings.
type Config struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	APIToken  string        `mapstructure:"api_token"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	VerifySSL bool          `mapstructure:"verify_ssl"`
	Timeout   time.Duration `mapstructure:"timeout"`

	// RequestsPerSecond caps the REST call rate so a polling service
	// cannot overwhelm the appliance's management plane.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// DefaultConfig returns the default appliance connection configuration.
func DefaultConfig() Config {
	return Config{
		Port:              443,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 10,
	}
}
