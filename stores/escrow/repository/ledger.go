package repository

import (
	"math/big"
	"time"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/log"
	"github.com/etherbay/goapi/base/ptr"
	"github.com/etherbay/goapi/domain"
	"github.com/etherbay/goapi/domain/escrow"
)

// escrowLedgerImpl owns every transaction record and the custody of paid
// value between Open and Release. Like the listing store it holds state in
// process memory and relies on the market usecase for serialization.
type escrowLedgerImpl struct {
	byId     map[int64]*escrow.Transaction
	byParty  map[domain.Address][]int64
	custody  map[int64]*big.Int
	balances map[domain.Address]*big.Int
}

func NewEscrowLedger() escrow.Ledger {
	return &escrowLedgerImpl{
		byId:     map[int64]*escrow.Transaction{},
		byParty:  map[domain.Address][]int64{},
		custody:  map[int64]*big.Int{},
		balances: map[domain.Address]*big.Int{},
	}
}

func (im *escrowLedgerImpl) Open(c ctx.Ctx, p escrow.OpenParams) error {
	if _, ok := im.byId[p.Id]; ok {
		return domain.ErrAlreadyExists
	}

	amount, err := domain.ParseWei(p.Amount)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "amount": p.Amount}).Error("invalid amount")
		return err
	}

	buyer := p.Buyer.ToLower()
	seller := p.Seller.ToLower()

	im.byId[p.Id] = &escrow.Transaction{
		Id:        p.Id,
		Buyer:     buyer,
		Seller:    seller,
		Amount:    amount.String(),
		Status:    escrow.TxStatusAwaitingDelivery,
		CreatedAt: time.Now().UTC(),
	}
	im.custody[p.Id] = amount
	im.byParty[buyer] = append(im.byParty[buyer], p.Id)
	if !seller.Equals(buyer) {
		im.byParty[seller] = append(im.byParty[seller], p.Id)
	}

	return nil
}

func (im *escrowLedgerImpl) Release(c ctx.Ctx, id int64, caller domain.Address) (*escrow.Transaction, error) {
	tx, ok := im.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !tx.Buyer.Equals(caller) {
		return nil, domain.ErrUnauthorized
	}
	if tx.Status == escrow.TxStatusComplete {
		return nil, domain.ErrAlreadyComplete
	}

	held := im.custody[id]
	balance, ok := im.balances[tx.Seller]
	if !ok {
		balance = new(big.Int)
		im.balances[tx.Seller] = balance
	}
	balance.Add(balance, held)
	im.custody[id] = new(big.Int)

	tx.Status = escrow.TxStatusComplete
	tx.CompletedAt = ptr.Time(time.Now().UTC())

	cp := *tx
	return &cp, nil
}

func (im *escrowLedgerImpl) FindOne(c ctx.Ctx, id int64) (*escrow.Transaction, error) {
	tx, ok := im.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (im *escrowLedgerImpl) FindIdsByParty(c ctx.Ctx, party domain.Address) ([]int64, error) {
	ids := im.byParty[party.ToLower()]
	res := make([]int64, len(ids))
	copy(res, ids)
	return res, nil
}

func (im *escrowLedgerImpl) CustodyOf(c ctx.Ctx, id int64) (string, error) {
	held, ok := im.custody[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return held.String(), nil
}

func (im *escrowLedgerImpl) BalanceOf(c ctx.Ctx, party domain.Address) (string, error) {
	balance, ok := im.balances[party.ToLower()]
	if !ok {
		return "0", nil
	}
	return balance.String(), nil
}
