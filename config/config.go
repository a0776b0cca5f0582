package config

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12333"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	DueSoonDays int    `env:"DUE_SOON_DAYS" envDefault:"7"`
}

type DatabaseConfig struct {
	Host            string `env:"POSTGRES_HOST,required"`
	Port            string `env:"POSTGRES_PORT,required"`
	User            string `env:"POSTGRES_USER,required"`
	DBName          string `env:"POSTGRES_DB_NAME,required"`
	Password        string `env:"POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
}

type GmailConfig struct {
	Enabled      bool   `env:"GMAIL_ENABLED" envDefault:"true"`
	BaseURL      string `env:"GMAIL_API_BASE_URL" envDefault:"https://gmail.googleapis.com"`
	ClientID     string `env:"GMAIL_CLIENT_ID"`
	ClientSecret string `env:"GMAIL_CLIENT_SECRET"`
	RefreshToken string `env:"GMAIL_REFRESH_TOKEN"`
	TokenURL     string `env:"GMAIL_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
}

type IMAPConfig struct {
	Enabled  bool   `env:"IMAP_ENABLED" envDefault:"false"`
	Server   string `env:"IMAP_SERVER"`
	Port     int    `env:"IMAP_PORT" envDefault:"993"`
	Username string `env:"IMAP_USERNAME"`
	Password string `env:"IMAP_PASSWORD"`
	UseTLS   bool   `env:"IMAP_TLS" envDefault:"true"`
	Folder   string `env:"IMAP_FOLDER" envDefault:"INBOX"`
}

type LLMConfig struct {
	APIKey         string `env:"LLM_API_KEY,required"`
	BaseURL        string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model          string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	TimeoutSeconds int    `env:"LLM_TIMEOUT_SECONDS" envDefault:"60"`
	ProfileFields  string `env:"LLM_PROFILE_FIELDS" envDefault:"full_name,address,email,phone,iban,tax_id,kvk_number"`
}

type StorageConfig struct {
	Backend       string `env:"STORAGE_BACKEND" envDefault:"local"`
	AttachmentDir string `env:"ATTACHMENT_DIR" envDefault:"data/attachments"`
	LedgerPath    string `env:"LEDGER_PATH" envDefault:"data/processed_ids.json"`

	S3Region    string `env:"S3_REGION"`
	S3Bucket    string `env:"S3_BUCKET" envDefault:"attachments"`
	S3AccessKey string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `env:"S3_ACCESS_KEY_SECRET"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
}

type PollerConfig struct {
	Query           string `env:"MAIL_POLL_QUERY" envDefault:"in:inbox is:unread newer_than:7d"`
	IntervalSeconds int    `env:"MAIL_POLL_SECONDS" envDefault:"30"`
	MaxResults      int    `env:"MAIL_POLL_MAX_RESULTS" envDefault:"20"`
}
