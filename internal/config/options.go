package config

import (
	"log/slog"
	"unicode/utf8"

	"github.com/JonMunkholm/csvutil/internal/csvutil"
)

func (c *CSVConfig) delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == utf8.RuneError {
		return csvutil.DefaultDelimiter
	}
	return r
}

// ReadOptions returns reader options built from the CSV settings.
func (c *CSVConfig) ReadOptions() csvutil.ReadOptions {
	return csvutil.ReadOptions{
		Delimiter:    c.delimiter(),
		Encoding:     c.ReadEncoding,
		MaxFieldSize: c.MaxFieldSize,
		UseMaxSize:   c.UseMaxSize,
	}
}

// WriteOptions returns writer options built from the CSV settings.
func (c *CSVConfig) WriteOptions(logger *slog.Logger) csvutil.WriteOptions {
	return csvutil.WriteOptions{
		Delimiter:    c.delimiter(),
		Encoding:     c.WriteEncoding,
		UseCRLF:      c.CRLF,
		MaxFieldSize: c.MaxFieldSize,
		UseMaxSize:   c.UseMaxSize,
		ShardSize:    c.ShardSize,
		TempDir:      c.TempDir,
		Logger:       logger,
	}
}
