package storage

import (
	"context"
	"math/big"
	"time"

	"roomShare/internal/models"
)

// Registry is the contract gateway as seen by the handlers.
type Registry interface {
	ListRoomCount(ctx context.Context) (int64, error)
	GetRoom(ctx context.Context, id int64) (models.Room, error)
	GetAllRooms(ctx context.Context) ([]models.Room, error)
	GetMyRents(ctx context.Context, caller string) ([]models.Rent, error)
	GetRoomHistory(ctx context.Context, roomId int64) ([]models.Rent, error)
	RecommendDate(ctx context.Context, roomId, checkIn, checkOut int64) (models.Recommendation, error)
	SubmitRoomListing(ctx context.Context, caller string, listing models.Listing) (models.Receipt, error)
	SubmitRental(ctx context.Context, caller string, rental models.Rental) (models.Receipt, error)
	Accounts(ctx context.Context) ([]string, error)
	Balance(ctx context.Context, address string) (*big.Int, error)
}

type Cache interface {
	GetRooms(ctx context.Context) ([]byte, error)
	PutRooms(ctx context.Context, rooms []models.Room) error
	DeleteRooms(ctx context.Context)
	PutSession(ctx context.Context, session models.Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	AcquireSubmission(ctx context.Context, caller string, ttl time.Duration) (bool, error)
	ReleaseSubmission(ctx context.Context, caller string)
}

type Journal interface {
	CreateSubmission(ctx context.Context, submission models.Submission) (models.Submission, error)
	FinishSubmission(ctx context.Context, id int64, status, txHash, failure string) error
	GetSubmissionsByCaller(ctx context.Context, caller string) ([]models.Submission, error)
}
