package config

import "strings"

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)

	cfg.Supabase.URL = strings.TrimRight(strings.TrimSpace(cfg.Supabase.URL), "/")
	cfg.Supabase.AnonKey = strings.TrimSpace(cfg.Supabase.AnonKey)
	cfg.Supabase.JWTSecret = strings.TrimSpace(cfg.Supabase.JWTSecret)

	cfg.Data.Driver = normalizeName(cfg.Data.Driver)
	if cfg.Data.Driver == "" {
		cfg.Data.Driver = defaultDataDriver
	}
	cfg.Data.DSN = strings.TrimSpace(cfg.Data.DSN)
	cfg.Data.EntriesTable = orDefault(cfg.Data.EntriesTable, defaultEntriesTable)
	cfg.Data.UpsertTable = orDefault(cfg.Data.UpsertTable, defaultUpsertTable)
	cfg.Data.StoriesTable = orDefault(cfg.Data.StoriesTable, defaultStoriesTable)

	cfg.Storage.Driver = normalizeName(cfg.Storage.Driver)
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaultStorageDriver
	}
	cfg.Storage.Bucket = orDefault(cfg.Storage.Bucket, defaultStoriesBucket)
	cfg.Storage.S3.Region = orDefault(cfg.Storage.S3.Region, defaultS3Region)
	cfg.Storage.S3.Endpoint = strings.TrimSpace(cfg.Storage.S3.Endpoint)
	cfg.Storage.S3.AccessKeyID = strings.TrimSpace(cfg.Storage.S3.AccessKeyID)
	cfg.Storage.S3.SecretAccessKey = strings.TrimSpace(cfg.Storage.S3.SecretAccessKey)

	cfg.Generation.Provider = normalizeName(cfg.Generation.Provider)
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = defaultGenerationProvider
	}
	cfg.Generation.Model = strings.TrimSpace(cfg.Generation.Model)
	cfg.Generation.APIKey = strings.TrimSpace(cfg.Generation.APIKey)
	cfg.Generation.BaseURL = strings.TrimSpace(cfg.Generation.BaseURL)

	cfg.RedisURL = normalizeRedisRawURL(cfg.RedisURL)
}

func normalizeName(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	return strings.ReplaceAll(t, " ", "")
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}
