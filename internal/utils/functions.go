package utils

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func ValidateURL(link string) error {
	parsedURL, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// FileNameFromURL returns the last path segment of link, or "downloaded_file".
func FileNameFromURL(link string) string {
	parsedURL, err := url.Parse(link)
	if err != nil {
		return "downloaded_file"
	}
	name := filepath.Base(parsedURL.Path)
	if name == "." || name == "/" || name == "" {
		return "downloaded_file"
	}
	return name
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// TempDirFor is the default sink directory, next to the output file.
func TempDirFor(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), TempDirName)
}

func FragmentSinkPath(tempDir, outputPath string, index int) string {
	return filepath.Join(tempDir, fmt.Sprintf("%s.part%d", filepath.Base(outputPath), index))
}

// CleanFragments removes every <base>.partN file for outputPath from tempDir and
// deletes tempDir once it is empty. It returns the number of files removed.
func CleanFragments(tempDir, outputPath string) (int, error) {
	files, err := os.ReadDir(tempDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	partPrefix := filepath.Base(outputPath) + ".part"
	removed := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), partPrefix) {
			continue
		}
		if !FragmentIDRegex.MatchString(file.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(tempDir, file.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, RemoveIfEmpty(tempDir)
}

// CleanAll removes every fragment sink found in tempDir, whatever output it belonged to.
func CleanAll(tempDir string) (int, error) {
	files, err := os.ReadDir(tempDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, file := range files {
		if file.IsDir() || !FragmentIDRegex.MatchString(file.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(tempDir, file.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, RemoveIfEmpty(tempDir)
}

func RemoveIfEmpty(dir string) error {
	remainingFiles, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(remainingFiles) == 0 {
		if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
