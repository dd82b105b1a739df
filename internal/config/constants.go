package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8787
	defaultEnv        = "production"

	defaultDataDriver    = DriverSupabase
	defaultStorageDriver = DriverSupabase
	defaultEntriesTable  = "one_liners"
	defaultUpsertTable   = "entries"
	defaultStoriesTable  = "stories"
	defaultStoriesBucket = "stories-md"

	defaultGenerationProvider = ProviderOpenAI
	defaultOpenAIModel        = "gpt-4o-mini"
	defaultAnthropicModel     = "claude-haiku-4-5-20251001"
	defaultCentsPerToken      = 0.01

	defaultS3Region  = "us-east-1"
	defaultDBCharset = "utf8mb4"
)

// Backend drivers.
const (
	DriverSupabase = "supabase"
	DriverMySQL    = "mysql"
	DriverS3       = "s3"
)

// Generation providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// OneLinersTable is the single-column-per-day entries schema (date_key, content).
const OneLinersTable = "one_liners"
