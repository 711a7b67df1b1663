package excel

// ExcelConfig holds configuration for a file data source
type ExcelConfig struct {
	FilePath string `json:"file_path"`
	Sheet    string `json:"sheet"`
}

// DefaultExcelConfig returns sensible defaults for file sources
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Sheet: "Sheet1",
	}
}
