package storage

import (
	"os"
	"path/filepath"
)

// Usage is the on-disk footprint of the storage locations.
type Usage struct {
	DatabaseBytes int64 `json:"database_bytes"`
	UploadBytes   int64 `json:"upload_bytes"`
	ReportBytes   int64 `json:"report_bytes"`
	TotalBytes    int64 `json:"total_bytes"`
}

// MeasureUsage sums the sizes of the database file (with its WAL side files),
// the upload directory and the report directory. Missing paths count as zero.
func MeasureUsage(databasePath, uploadDir, reportDir string) (Usage, error) {
	var (
		u       Usage
		err     error
		dbFiles []string
	)
	if databasePath != "" {
		dbFiles = []string{databasePath, databasePath + "-wal", databasePath + "-shm"}
	}
	if u.DatabaseBytes, err = diskUsageBytes(dbFiles...); err != nil {
		return Usage{}, err
	}
	if u.UploadBytes, err = diskUsageBytes(uploadDir); err != nil {
		return Usage{}, err
	}
	if u.ReportBytes, err = diskUsageBytes(reportDir); err != nil {
		return Usage{}, err
	}
	u.TotalBytes = u.DatabaseBytes + u.UploadBytes + u.ReportBytes
	return u, nil
}

func diskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.Walk(p, func(_ string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				total += fi.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
