// Package contract is the only bridge to the deployed RoomShare contract.
package contract

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"roomShare/internal/apperrors"
	"roomShare/internal/models"
	"roomShare/internal/pricing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

//go:embed roomshare.abi.json
var roomShareABI string

const (
	defaultGas          = 3000000
	defaultPollInterval = 500 * time.Millisecond
)

type roomTuple struct {
	Id       *big.Int
	Name     string
	Location string
	IsActive bool
	Price    *big.Int
	Owner    common.Address
	IsRented []bool
}

type rentTuple struct {
	Id           *big.Int
	RId          *big.Int
	CheckInDate  *big.Int
	CheckOutDate *big.Int
	Renter       common.Address
}

type transferEvent struct {
	Sender    common.Address
	Recipient common.Address
	Amount    *big.Int
}

type Options struct {
	CallTimeout   time.Duration
	SubmitTimeout time.Duration
	PollInterval  time.Duration
	Gas           uint64
}

type Gateway struct {
	backend Backend
	abi     abi.ABI
	address common.Address
	opts    Options
	logger  *zap.Logger
}

func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(roomShareABI))
}

func New(backend Backend, address string, opts Options, logger *zap.Logger) (*Gateway, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: contract address %q", apperrors.ErrMalformedInput, address)
	}

	parsed, err := ParseABI()
	if err != nil {
		return nil, err
	}

	if opts.Gas == 0 {
		opts.Gas = defaultGas
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	return &Gateway{
		backend: backend,
		abi:     parsed,
		address: common.HexToAddress(address),
		opts:    opts,
		logger:  logger.With(zap.String("contract", address)),
	}, nil
}

func parseAddress(hex string) (common.Address, error) {
	if !common.IsHexAddress(hex) {
		return common.Address{}, fmt.Errorf("%w: %q is not an address", apperrors.ErrMalformedInput, hex)
	}

	return common.HexToAddress(hex), nil
}

func (g *Gateway) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func (g *Gateway) call(ctx context.Context, from common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", method, apperrors.ErrMalformedInput, err)
	}

	ctx, cancel := g.withTimeout(ctx, g.opts.CallTimeout)
	defer cancel()

	raw, err := g.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &g.address, Data: data}, nil)
	if err != nil {
		g.logger.Warn("contract call failed", zap.String("method", method), zap.Error(err))
		return nil, classify(method, err)
	}

	if len(raw) == 0 {
		g.logger.Error("empty call result, check the contract address", zap.String("method", method))
		return nil, fmt.Errorf("%s: %w %s", method, apperrors.ErrContractMissing, g.address.Hex())
	}

	out, err := g.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: unpack result: %w", method, err)
	}

	return out, nil
}

func (g *Gateway) ListRoomCount(ctx context.Context) (int64, error) {
	out, err := g.call(ctx, common.Address{}, "getRoomNum")
	if err != nil {
		return 0, err
	}

	count := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)

	return count.Int64(), nil
}

func (g *Gateway) GetRoom(ctx context.Context, id int64) (models.Room, error) {
	out, err := g.call(ctx, common.Address{}, "getRoomByRoomId", big.NewInt(id))
	if err != nil {
		return models.Room{}, err
	}

	room := *abi.ConvertType(out[0], new(roomTuple)).(*roomTuple)

	return models.Room{
		Id:       room.Id.Int64(),
		Name:     room.Name,
		Location: room.Location,
		IsActive: room.IsActive,
		Price:    room.Price.Int64(),
		Owner:    room.Owner.Hex(),
	}, nil
}

// GetAllRooms issues one getRoomByRoomId per registered room.
func (g *Gateway) GetAllRooms(ctx context.Context) ([]models.Room, error) {
	count, err := g.ListRoomCount(ctx)
	if err != nil {
		return nil, err
	}

	rooms := make([]models.Room, 0, count)
	for i := int64(0); i < count; i++ {
		room, err := g.GetRoom(ctx, i)
		if err != nil {
			return nil, err
		}

		rooms = append(rooms, room)
	}

	g.logger.Debug("fetched rooms", zap.Int64("count", count))

	return rooms, nil
}

func toRents(out []interface{}) []models.Rent {
	tuples := *abi.ConvertType(out[0], new([]rentTuple)).(*[]rentTuple)

	rents := make([]models.Rent, 0, len(tuples))
	for _, rent := range tuples {
		rents = append(rents, models.Rent{
			Id:           rent.Id.Int64(),
			RoomId:       rent.RId.Int64(),
			CheckInDate:  rent.CheckInDate.Int64(),
			CheckOutDate: rent.CheckOutDate.Int64(),
			Renter:       rent.Renter.Hex(),
		})
	}

	return rents
}

// GetMyRents reads with from = caller; the contract filters by msg.sender.
func (g *Gateway) GetMyRents(ctx context.Context, caller string) ([]models.Rent, error) {
	from, err := parseAddress(caller)
	if err != nil {
		return nil, err
	}

	out, err := g.call(ctx, from, "getMyRents")
	if err != nil {
		return nil, err
	}

	return toRents(out), nil
}

func (g *Gateway) GetRoomHistory(ctx context.Context, roomId int64) ([]models.Rent, error) {
	out, err := g.call(ctx, common.Address{}, "getRoomRentHistory", big.NewInt(roomId))
	if err != nil {
		return nil, err
	}

	return toRents(out), nil
}

func (g *Gateway) RecommendDate(ctx context.Context, roomId, checkIn, checkOut int64) (models.Recommendation, error) {
	out, err := g.call(ctx, common.Address{}, "recommendDate", big.NewInt(roomId), big.NewInt(checkIn), big.NewInt(checkOut))
	if err != nil {
		return models.Recommendation{}, err
	}

	pair := *abi.ConvertType(out[0], new([2]*big.Int)).(*[2]*big.Int)

	return models.Recommendation{CheckIn: pair[0].Int64(), CheckOut: pair[1].Int64()}, nil
}

func (g *Gateway) Accounts(ctx context.Context) ([]string, error) {
	ctx, cancel := g.withTimeout(ctx, g.opts.CallTimeout)
	defer cancel()

	accounts, err := g.backend.Accounts(ctx)
	if err != nil {
		return nil, classify("eth_accounts", err)
	}

	hexes := make([]string, 0, len(accounts))
	for _, account := range accounts {
		hexes = append(hexes, account.Hex())
	}

	return hexes, nil
}

func (g *Gateway) Balance(ctx context.Context, address string) (*big.Int, error) {
	account, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := g.withTimeout(ctx, g.opts.CallTimeout)
	defer cancel()

	balance, err := g.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, classify("eth_getBalance", err)
	}

	return balance, nil
}

func (g *Gateway) SubmitRoomListing(ctx context.Context, caller string, listing models.Listing) (models.Receipt, error) {
	return g.transact(ctx, caller, "shareRoom", nil, listing.Name, listing.Location, big.NewInt(listing.Price))
}

// SubmitRental pays rental.Cost, converted from finney to wei. A stay
// must last at least one night.
func (g *Gateway) SubmitRental(ctx context.Context, caller string, rental models.Rental) (models.Receipt, error) {
	if rental.CheckOut <= rental.CheckIn || rental.Cost < 0 {
		return models.Receipt{}, fmt.Errorf("rentRoom: %w: stay %d..%d costs %d", apperrors.ErrMalformedInput, rental.CheckIn, rental.CheckOut, rental.Cost)
	}

	return g.transact(ctx, caller, "rentRoom", pricing.PaymentWei(rental.Cost),
		big.NewInt(rental.RoomId), big.NewInt(rental.CheckIn), big.NewInt(rental.CheckOut))
}

func (g *Gateway) transact(ctx context.Context, caller, method string, value *big.Int, args ...interface{}) (models.Receipt, error) {
	from, err := parseAddress(caller)
	if err != nil {
		return models.Receipt{}, err
	}

	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("%s: %w: %v", method, apperrors.ErrMalformedInput, err)
	}

	msg := ethereum.CallMsg{From: from, To: &g.address, Gas: g.opts.Gas, Value: value, Data: data}

	ctx, cancel := g.withTimeout(ctx, g.opts.SubmitTimeout)
	defer cancel()

	// A dry run surfaces reverts before anything is broadcast.
	if _, err := g.backend.CallContract(ctx, msg, nil); err != nil {
		g.logger.Info("dry run rejected", zap.String("method", method), zap.String("caller", caller), zap.Error(err))
		return models.Receipt{}, classify(method, err)
	}

	hash, err := g.backend.SendFromAccount(ctx, msg)
	if err != nil {
		g.logger.Warn("send failed", zap.String("method", method), zap.String("caller", caller), zap.Error(err))
		return models.Receipt{}, classify(method, err)
	}

	g.logger.Info("transaction sent", zap.String("method", method), zap.String("tx", hash.Hex()))

	receipt, err := g.waitMined(ctx, hash)
	if err != nil {
		return models.Receipt{}, classify(method, err)
	}

	result := g.decodeReceipt(receipt)
	if receipt.Status == types.ReceiptStatusFailed {
		return result, fmt.Errorf("%s: %w: transaction %s failed", method, apperrors.ErrContractReverted, hash.Hex())
	}

	return result, nil
}

func (g *Gateway) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(g.opts.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: waiting for %s: %v", apperrors.ErrConnection, hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (g *Gateway) decodeReceipt(receipt *types.Receipt) models.Receipt {
	result := models.Receipt{
		TxHash:  receipt.TxHash.Hex(),
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}

	for _, log := range receipt.Logs {
		if log == nil || log.Address != g.address || len(log.Topics) == 0 {
			continue
		}

		switch log.Topics[0] {
		case g.abi.Events["NewRoom"].ID:
			if len(log.Topics) > 1 {
				roomId := log.Topics[1].Big().Int64()
				result.RoomId = &roomId
			}
		case g.abi.Events["NewRent"].ID:
			if len(log.Topics) > 2 {
				roomId := log.Topics[1].Big().Int64()
				rentId := log.Topics[2].Big().Int64()
				result.RoomId = &roomId
				result.RentId = &rentId
			}
		case g.abi.Events["Transfer"].ID:
			var transfer transferEvent
			if err := g.abi.UnpackIntoInterface(&transfer, "Transfer", log.Data); err != nil {
				g.logger.Warn("undecodable Transfer log", zap.Error(err))
				continue
			}
			result.Transferred = transfer.Amount.String()
		}
	}

	return result
}
