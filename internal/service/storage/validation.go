package storage

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Gichie/CloudFileStorage/internal/config"
	"github.com/Gichie/CloudFileStorage/internal/domain"
)

var nodeNamePattern = regexp.MustCompile(`^[^/]+$`)

// ValidateNodeName checks a file or folder name: non-empty after trimming,
// within the length limit, no path separators. Violations surface as
// *domain.ValidationError attached to the "name" field.
func ValidateNodeName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("name cannot be empty"),
		validation.Length(1, config.MaxNodeNameLength),
		validation.Match(nodeNamePattern).Error("name cannot contain slashes"),
	)
	if err != nil {
		return &domain.ValidationError{
			Message: fmt.Sprintf("invalid name %q: %v", name, err),
			Field:   "name",
		}
	}
	return nil
}

// SplitRelativePath breaks an upload-relative path into folder segments and
// the leaf filename. Empty, "." and ".." segments are dropped so crafted
// paths cannot escape the target directory.
func SplitRelativePath(relPath string) (folders []string, leaf string, err error) {
	if len(relPath) > config.MaxPathLength {
		return nil, "", &domain.ValidationError{
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", config.MaxPathLength),
			Field:   "name",
		}
	}

	segments := []string{}
	for _, segment := range strings.Split(relPath, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		segments = append(segments, segment)
	}

	if len(segments) == 0 {
		return nil, "", &domain.ValidationError{
			Message: fmt.Sprintf("invalid path %q: no file name", relPath),
			Field:   "name",
		}
	}

	leaf = segments[len(segments)-1]
	folders = segments[:len(segments)-1]

	if err := ValidateNodeName(leaf); err != nil {
		return nil, "", err
	}
	for _, folder := range folders {
		if err := ValidateNodeName(folder); err != nil {
			return nil, "", err
		}
	}

	return folders, leaf, nil
}
