package anomaly

// Config selects the reporters beyond logging. Empty values disable them.
type Config struct {
	S3Bucket         string `env:"ANOMALY_S3_BUCKET"`
	S3Prefix         string `env:"ANOMALY_S3_PREFIX" envDefault:"anomalies"`
	S3Region         string `env:"ANOMALY_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint       string `env:"ANOMALY_S3_ENDPOINT"`
	S3AccessKeyID    string `env:"ANOMALY_S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"ANOMALY_S3_SECRET_KEY"`
	S3ForcePathStyle bool   `env:"ANOMALY_S3_FORCE_PATH_STYLE" envDefault:"false"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	AlertFrom            string `env:"ANOMALY_ALERT_FROM"`
	AlertTo              string `env:"ANOMALY_ALERT_TO"`
}
