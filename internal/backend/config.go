package backend

import (
	"fmt"

	"ccpp/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Data:                DataBackendType(appConfig.DataBackend),
		Sessions:            SessionBackendType(appConfig.SessionBackend),
		DataDirectory:       appConfig.DataDir,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Data.IsValid() {
		return fmt.Errorf("invalid data backend type: %s", c.Data)
	}
	if !c.Sessions.IsValid() {
		return fmt.Errorf("invalid session backend type: %s", c.Sessions)
	}

	if c.Data == SheetsBackend && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
	}
	if c.Sessions == SQLiteSessions && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite sessions")
	}
	return nil
}

// GetBackendTypes returns all valid data backend types
func GetBackendTypes() []DataBackendType {
	return []DataBackendType{FileBackend, SheetsBackend}
}

// GetBackendTypeStrings returns all valid data backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
