package sale

import "context"

type Store interface {
	PutSale(ctx context.Context, s *Sale) error
	ListSales(ctx context.Context) ([]*Sale, error)
	SetSaleMax(ctx context.Context, saleMax uint64) error
	GetSaleMax(ctx context.Context) (uint64, error)
}
