package config

const (
	// MaxNodeNameLength is the maximum length for file and folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxNodeNameLength = 255

	// MaxPathLength is the maximum length for a slash-separated relative
	// path, enforced when upload batches are split into segments.
	MaxPathLength = 500

	// DefaultMaxUploadFiles caps the number of files accepted in a single
	// upload batch. A batch over the cap is rejected before any storage work.
	DefaultMaxUploadFiles = 500

	// DefaultMaxUploadBatchSize caps the combined declared size of an
	// upload batch (500 MiB).
	DefaultMaxUploadBatchSize = 500 << 20

	// DefaultMaxUploadFileSize caps a single uploaded file (100 MiB).
	DefaultMaxUploadFileSize = 100 << 20
)
