package job

import "context"

// Repository は求人・勤務日の永続化を行うインターフェースです。
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Job, error)
	FindWorkDateByID(ctx context.Context, id int64) (*JobWorkDate, error)
	ListWorkDates(ctx context.Context, jobID int64) ([]*JobWorkDate, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
