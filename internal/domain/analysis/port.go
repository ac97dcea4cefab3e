package analysis

import "context"

// ModelAdapter port (interface untuk inference per scan type)
type ModelAdapter interface {
	// Load makes the adapter ready. Calling it again after success is a no-op.
	Load(ctx context.Context) (bool, error)
	// Predict loads lazily when needed.
	Predict(ctx context.Context, image []byte) (RawPrediction, error)
}

// Registry maps a scan type to the adapter that serves it.
type Registry map[ScanType]ModelAdapter

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *Result) error
	Get(ctx context.Context, id string) (*Result, error)
	Paginate(ctx context.Context, page, pageSize int, f ListFilter) ([]*Result, error)
}

// ImageStore port (interface untuk penyimpanan file scan)
type ImageStore interface {
	Put(ctx context.Context, key string, up Upload) (string, error)
	Delete(ctx context.Context, key string) error
}

// ImageInspector reads scan headers. A nil info with a nil error means the
// file is not in a format the inspector understands.
type ImageInspector interface {
	Inspect(data []byte, scanType ScanType) (*ImageInfo, error)
}
