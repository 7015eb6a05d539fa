package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"dnkquest-backend/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

type PaymentConfig struct {
	RPCURL       string  `yaml:"rpcUrl"`
	ChainID      int64   `yaml:"chainId"`
	AdminAddress string  `yaml:"adminAddress"`
	QuestFeeDoge float64 `yaml:"questFeeDoge"`
}

// PaymentService checks quest-fee transfers on the DogeOS chain. The fee is a
// plain value transfer to the admin address in the 18-decimal native unit. The
// tx is fetched from the node and its recipient and value validated, but there
// is no confirmation wait: a tx known to the node is accepted immediately.
type PaymentService struct {
	client *ethclient.Client
	admin  common.Address
}

// NewPaymentService dials the RPC node. An empty URL disables on-chain
// validation entirely, for local development without a node.
func NewPaymentService(cfg PaymentConfig) (*PaymentService, error) {
	if cfg.RPCURL == "" {
		logger.Logger().Warn("payment validation disabled: no RPC URL configured")
		return &PaymentService{}, nil
	}

	if !common.IsHexAddress(cfg.AdminAddress) {
		return nil, fmt.Errorf("invalid admin address: %s", cfg.AdminAddress)
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc node: %w", err)
	}

	return &PaymentService{
		client: client,
		admin:  common.HexToAddress(cfg.AdminAddress),
	}, nil
}

func (s *PaymentService) CheckPayment(ctx context.Context, txHash string, dogeAmount float64) error {
	if s.client == nil {
		return nil
	}

	if !strings.HasPrefix(txHash, "0x") || len(txHash) != 66 {
		return fmt.Errorf("invalid transaction hash")
	}

	tx, _, err := s.client.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		return fmt.Errorf("failed to fetch transaction: %w", err)
	}

	if tx.To() == nil || *tx.To() != s.admin {
		return fmt.Errorf("payment recipient mismatch")
	}

	required := dogeToWei(dogeAmount)
	if tx.Value().Cmp(required) < 0 {
		return fmt.Errorf("payment amount too low: got %s, want %s", tx.Value(), required)
	}

	logger.Logger().Info("quest fee payment accepted",
		zap.String("tx", txHash),
		zap.String("value", tx.Value().String()))
	return nil
}

// dogeToWei converts a DOGE amount to the chain's 18-decimal unit.
func dogeToWei(amount float64) *big.Int {
	wei, _ := new(big.Float).Mul(
		big.NewFloat(amount),
		new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)),
	).Int(nil)
	return wei
}
