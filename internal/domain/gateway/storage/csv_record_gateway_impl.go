package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"weather-poller/internal/domain/entity"

	"github.com/gocarina/gocsv"
)

type csvRecordGatewayImpl struct {
	opts Options
}

// NewCSVRecordGateway stores records as delimited text. It keeps no open
// handles and does not synchronise writers; callers must not append to the
// same partition concurrently.
func NewCSVRecordGateway(opts Options) RecordGateway {
	if opts.Extension == "" {
		opts.Extension = "csv"
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &csvRecordGatewayImpl{opts: opts}
}

func (g *csvRecordGatewayImpl) PartitionPath(record entity.WeatherRecord) (string, error) {
	return partitionPath(g.opts, record)
}

func (g *csvRecordGatewayImpl) Append(record entity.WeatherRecord) (path string, err error) {
	path, err = partitionPath(g.opts, record)
	if err != nil {
		return "", err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create partition directory: %w", err)
	}

	header, err := needsHeader(path)
	if err != nil {
		return "", fmt.Errorf("stat partition %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open partition %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close partition %s: %w", path, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	writer.Comma = g.opts.Delimiter
	safeWriter := gocsv.NewSafeCSVWriter(writer)

	rows := []entity.WeatherRecord{record}
	if header {
		err = gocsv.MarshalCSV(rows, safeWriter)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(rows, safeWriter)
	}
	if err != nil {
		return path, fmt.Errorf("write partition %s: %w", path, err)
	}

	safeWriter.Flush()
	if err = safeWriter.Error(); err != nil {
		return path, fmt.Errorf("flush partition %s: %w", path, err)
	}

	return path, nil
}
