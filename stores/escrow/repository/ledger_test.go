package repository

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain"
	"github.com/etherbay/goapi/domain/escrow"
)

const (
	buyer  = domain.Address("0x939ae6a4c8dfdbb1f7085189574f0a938013952a")
	seller = domain.Address("0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d")
)

type escrowLedgerSuite struct {
	suite.Suite

	ctx ctx.Ctx
	im  escrow.Ledger
}

func TestEscrowLedgerSuite(t *testing.T) {
	suite.Run(t, new(escrowLedgerSuite))
}

func (s *escrowLedgerSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.im = NewEscrowLedger()
}

func (s *escrowLedgerSuite) open(id int64, amount string) {
	s.Require().NoError(s.im.Open(s.ctx, escrow.OpenParams{
		Id:     id,
		Buyer:  buyer,
		Seller: seller,
		Amount: amount,
	}))
}

func (s *escrowLedgerSuite) TestOpenTakesCustody() {
	s.open(1, "100")

	tx, err := s.im.FindOne(s.ctx, 1)
	s.NoError(err)
	s.Equal(escrow.TxStatusAwaitingDelivery, tx.Status)
	s.Equal("100", tx.Amount)
	s.Equal(buyer, tx.Buyer)
	s.Equal(seller, tx.Seller)
	s.Nil(tx.CompletedAt)

	held, err := s.im.CustodyOf(s.ctx, 1)
	s.NoError(err)
	s.Equal("100", held)
}

func (s *escrowLedgerSuite) TestOpenIsOncePerId() {
	s.open(1, "100")
	err := s.im.Open(s.ctx, escrow.OpenParams{Id: 1, Buyer: buyer, Seller: seller, Amount: "100"})
	s.ErrorIs(err, domain.ErrAlreadyExists)
}

func (s *escrowLedgerSuite) TestReleaseIsBuyerOnlyAndExactlyOnce() {
	s.open(1, "100")

	_, err := s.im.Release(s.ctx, 1, seller)
	s.ErrorIs(err, domain.ErrUnauthorized)
	_, err = s.im.Release(s.ctx, 2, buyer)
	s.ErrorIs(err, domain.ErrNotFound)

	tx, err := s.im.Release(s.ctx, 1, buyer)
	s.NoError(err)
	s.Equal(escrow.TxStatusComplete, tx.Status)
	s.NotNil(tx.CompletedAt)

	// custody moved to the seller in full, exactly once
	held, err := s.im.CustodyOf(s.ctx, 1)
	s.NoError(err)
	s.Equal("0", held)
	balance, err := s.im.BalanceOf(s.ctx, seller)
	s.NoError(err)
	s.Equal("100", balance)

	_, err = s.im.Release(s.ctx, 1, buyer)
	s.ErrorIs(err, domain.ErrAlreadyComplete)
	balance, err = s.im.BalanceOf(s.ctx, seller)
	s.NoError(err)
	s.Equal("100", balance)
}

func (s *escrowLedgerSuite) TestBalanceAccumulatesAcrossTransactions() {
	s.open(1, "100")
	s.open(2, "250")

	_, err := s.im.Release(s.ctx, 1, buyer)
	s.NoError(err)
	_, err = s.im.Release(s.ctx, 2, buyer)
	s.NoError(err)

	balance, err := s.im.BalanceOf(s.ctx, seller)
	s.NoError(err)
	s.Equal("350", balance)

	balance, err = s.im.BalanceOf(s.ctx, buyer)
	s.NoError(err)
	s.Equal("0", balance)
}

func (s *escrowLedgerSuite) TestFindIdsByPartyKeepsInsertionOrder() {
	other := domain.Address("0xce4468e7ce84aceb74363f4ea64e5a038176f369")
	s.open(1, "100")
	s.Require().NoError(s.im.Open(s.ctx, escrow.OpenParams{Id: 2, Buyer: other, Seller: seller, Amount: "50"}))
	s.open(3, "300")

	ids, err := s.im.FindIdsByParty(s.ctx, buyer)
	s.NoError(err)
	s.Equal([]int64{1, 3}, ids)

	ids, err = s.im.FindIdsByParty(s.ctx, seller)
	s.NoError(err)
	s.Equal([]int64{1, 2, 3}, ids)

	ids, err = s.im.FindIdsByParty(s.ctx, "0x0000000000000000000000000000000000000001")
	s.NoError(err)
	s.Empty(ids)
}

func (s *escrowLedgerSuite) TestQueriesFailNotFoundOnUnknownId() {
	_, err := s.im.FindOne(s.ctx, 7)
	s.ErrorIs(err, domain.ErrNotFound)
	_, err = s.im.CustodyOf(s.ctx, 7)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *escrowLedgerSuite) TestOpenRejectsMalformedAmount() {
	err := s.im.Open(s.ctx, escrow.OpenParams{Id: 1, Buyer: buyer, Seller: seller, Amount: "1.5"})
	s.ErrorIs(err, domain.ErrInvalidNumberFormat)

	_, err = s.im.FindOne(s.ctx, 1)
	s.ErrorIs(err, domain.ErrNotFound)
}
