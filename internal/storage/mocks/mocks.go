package mocks

import (
	"context"
	"math/big"
	"time"

	"roomShare/internal/models"

	"github.com/stretchr/testify/mock"
)

type Registry struct {
	mock.Mock
}

func (m *Registry) ListRoomCount(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *Registry) GetRoom(ctx context.Context, id int64) (models.Room, error) {
	args := m.Called(id)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *Registry) GetAllRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called()
	rooms, _ := args.Get(0).([]models.Room)
	return rooms, args.Error(1)
}

func (m *Registry) GetMyRents(ctx context.Context, caller string) ([]models.Rent, error) {
	args := m.Called(caller)
	rents, _ := args.Get(0).([]models.Rent)
	return rents, args.Error(1)
}

func (m *Registry) GetRoomHistory(ctx context.Context, roomId int64) ([]models.Rent, error) {
	args := m.Called(roomId)
	rents, _ := args.Get(0).([]models.Rent)
	return rents, args.Error(1)
}

func (m *Registry) RecommendDate(ctx context.Context, roomId, checkIn, checkOut int64) (models.Recommendation, error) {
	args := m.Called(roomId, checkIn, checkOut)
	return args.Get(0).(models.Recommendation), args.Error(1)
}

func (m *Registry) SubmitRoomListing(ctx context.Context, caller string, listing models.Listing) (models.Receipt, error) {
	args := m.Called(caller, listing)
	return args.Get(0).(models.Receipt), args.Error(1)
}

func (m *Registry) SubmitRental(ctx context.Context, caller string, rental models.Rental) (models.Receipt, error) {
	args := m.Called(caller, rental)
	return args.Get(0).(models.Receipt), args.Error(1)
}

func (m *Registry) Accounts(ctx context.Context) ([]string, error) {
	args := m.Called()
	accounts, _ := args.Get(0).([]string)
	return accounts, args.Error(1)
}

func (m *Registry) Balance(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(address)
	balance, _ := args.Get(0).(*big.Int)
	return balance, args.Error(1)
}

type Cache struct {
	mock.Mock
}

func (m *Cache) GetRooms(ctx context.Context) ([]byte, error) {
	args := m.Called()
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *Cache) PutRooms(ctx context.Context, rooms []models.Room) error {
	return m.Called(rooms).Error(0)
}

func (m *Cache) DeleteRooms(ctx context.Context) {
	m.Called()
}

func (m *Cache) PutSession(ctx context.Context, session models.Session, ttl time.Duration) error {
	return m.Called(session, ttl).Error(0)
}

func (m *Cache) GetSession(ctx context.Context, id string) (models.Session, error) {
	args := m.Called(id)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *Cache) DeleteSession(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *Cache) AcquireSubmission(ctx context.Context, caller string, ttl time.Duration) (bool, error) {
	args := m.Called(caller, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *Cache) ReleaseSubmission(ctx context.Context, caller string) {
	m.Called(caller)
}

type Journal struct {
	mock.Mock
}

func (m *Journal) CreateSubmission(ctx context.Context, submission models.Submission) (models.Submission, error) {
	args := m.Called(submission)
	return args.Get(0).(models.Submission), args.Error(1)
}

func (m *Journal) FinishSubmission(ctx context.Context, id int64, status, txHash, failure string) error {
	return m.Called(id, status, txHash, failure).Error(0)
}

func (m *Journal) GetSubmissionsByCaller(ctx context.Context, caller string) ([]models.Submission, error) {
	args := m.Called(caller)
	submissions, _ := args.Get(0).([]models.Submission)
	return submissions, args.Error(1)
}
