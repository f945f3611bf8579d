package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"weather-poller/internal/domain/entity"
)

// RecordGateway persists weather records into per city, per year files.
type RecordGateway interface {
	// Append writes one record to its partition, creating the file with a
	// header row when it does not exist yet. It returns the partition path.
	Append(record entity.WeatherRecord) (string, error)

	// PartitionPath returns <directory>/<city>/<year>.<extension> for a record.
	PartitionPath(record entity.WeatherRecord) (string, error)
}

// ErrInvalidPartition is returned for city names that cannot be a single
// directory name. Names are otherwise used as given.
var ErrInvalidPartition = errors.New("invalid partition name")

type Options struct {
	Directory string
	Extension string
	Delimiter rune
}

func partitionPath(opts Options, record entity.WeatherRecord) (string, error) {
	city := record.City
	if city == "" || city == "." || city == ".." || strings.ContainsRune(city, '/') || strings.ContainsRune(city, 0) {
		return "", fmt.Errorf("%w: city %q", ErrInvalidPartition, city)
	}

	file := strconv.Itoa(record.Year()) + "." + opts.Extension
	return filepath.Join(opts.Directory, city, file), nil
}

// needsHeader reports whether path is missing or empty. An empty file is
// left behind when a process dies between create and the first write.
func needsHeader(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return false, fmt.Errorf("%s is a directory", path)
		}
		return info.Size() == 0, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, err
}
