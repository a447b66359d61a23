package conf

type Config struct {
	DBHost string `json:"DB_HOST"`

	DBUser string `json:"DB_USER"`

	DBPassword string `json:"DB_PASSWORD"`

	DBPort string `json:"DB_PORT"`

	DBDatabase string `json:"DB_DATABASE"`

	HTTPPort string `json:"HTTP_PORT"`

	MetricsPort string `json:"METRICS_PORT"`

	ZipkinEndpoint string `json:"ZIPKIN_ENDPOINT"`

	ApplicationEnv string `json:"APP_ENV"`

	ApplicationName string `json:"APPLICATION_NAME"`

	KafkaBrokerAddress string `json:"KAFKA_BROKER_ADDRESS"`

	SMSTopic string `json:"SMS_TOPIC"`

	LogLevel string `json:"LOG_LEVEL"`

	RBIEndpoint string `json:"RBI_ENDPOINT"`

	RBITimeoutSeconds int `json:"RBI_TIMEOUT_SECONDS"`

	MockLatencyMillis int `json:"MOCK_LATENCY_MILLIS"`

	MockSuccessRate float64 `json:"MOCK_SUCCESS_RATE"`

	// Limits are deployment-time configuration, expressed as decimal
	// strings in rupees.
	NEFTMaxAmount string `json:"NEFT_MAX_AMOUNT"`

	RTGSMinAmount string `json:"RTGS_MIN_AMOUNT"`

	RTGSMaxAmount string `json:"RTGS_MAX_AMOUNT"`

	DailyCustomerLimit string `json:"DAILY_CUSTOMER_LIMIT"`

	BatchCutoffTimes []string `json:"BATCH_CUTOFF_TIMES"`

	BatchHoldMinutes int `json:"BATCH_HOLD_MINUTES"`
}
