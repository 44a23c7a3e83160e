// Package erc20 implements the external-token custody backend over JSON-RPC.
// Balance and allowance reads go through eth_call; escrow moves are signed
// transferFrom / transfer transactions from the custody account.
package erc20

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// Pre-computed 4-byte call selectors for the ERC-20 methods the backend uses.
var (
	balanceOfSelector    = ethcrypto.Keccak256([]byte("balanceOf(address)"))[:4]
	allowanceSelector    = ethcrypto.Keccak256([]byte("allowance(address,address)"))[:4]
	transferSelector     = ethcrypto.Keccak256([]byte("transfer(address,uint256)"))[:4]
	transferFromSelector = ethcrypto.Keccak256([]byte("transferFrom(address,address,uint256)"))[:4]
)

// defaultGasLimit covers a standard ERC-20 transfer with headroom.
const defaultGasLimit uint64 = 120_000

// Config holds the parameters for the external token backend.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the chain holding the token.
	RPCURL string

	// Token is the ERC-20 contract address.
	Token common.Address

	// Key signs custody transactions. The derived address is the escrow
	// account that holds locked value.
	Key *ecdsa.PrivateKey

	// ChainID for transaction signing. Zero means query the node.
	ChainID int64

	// GasLimit per transfer transaction. Zero means defaultGasLimit.
	GasLimit uint64
}

// Client implements domain.CustodyBackend against an ERC-20 token.
type Client struct {
	eth      *ethclient.Client
	token    common.Address
	custody  common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	gasLimit uint64
}

// New dials the RPC endpoint and returns a ready Client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Key == nil {
		return nil, fmt.Errorf("erc20: custody key is required")
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("erc20: dial %s: %w", cfg.RPCURL, err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = eth.ChainID(ctx)
		if err != nil {
			eth.Close()
			return nil, fmt.Errorf("erc20: query chain id: %w", err)
		}
	}

	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}

	return &Client{
		eth:      eth,
		token:    cfg.Token,
		custody:  ethcrypto.PubkeyToAddress(cfg.Key.PublicKey),
		chainID:  chainID,
		key:      cfg.Key,
		gasLimit: gasLimit,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// CustodyAddress returns the escrow account derived from the custody key.
func (c *Client) CustodyAddress() common.Address {
	return c.custody
}

// BalanceOf returns the token balance of an account.
func (c *Client) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	out, err := c.call(ctx, packCall(balanceOfSelector, padAddress(account)))
	if err != nil {
		return nil, fmt.Errorf("erc20: balanceOf %s: %w", account, err)
	}
	return wordToUint256(out)
}

// Allowance returns how much the custody account may pull from owner.
func (c *Client) Allowance(ctx context.Context, owner common.Address) (*uint256.Int, error) {
	out, err := c.call(ctx, packCall(allowanceSelector, padAddress(owner), padAddress(c.custody)))
	if err != nil {
		return nil, fmt.Errorf("erc20: allowance %s: %w", owner, err)
	}
	return wordToUint256(out)
}

// TransferIn pulls amount from the account into the custody account via
// transferFrom. An allowance shortfall is surfaced as
// domain.ErrInsufficientAllowance before any transaction is sent.
func (c *Client) TransferIn(ctx context.Context, from common.Address, amount *uint256.Int) error {
	allowance, err := c.Allowance(ctx, from)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return fmt.Errorf("erc20: transfer in from %s: %w", from, domain.ErrInsufficientAllowance)
	}

	data := packCall(transferFromSelector, padAddress(from), padAddress(c.custody), padUint256(amount))
	if err := c.send(ctx, data); err != nil {
		return fmt.Errorf("erc20: transfer in from %s: %w", from, err)
	}
	return nil
}

// TransferOut releases amount from the custody account to the beneficiary.
func (c *Client) TransferOut(ctx context.Context, to common.Address, amount *uint256.Int) error {
	data := packCall(transferSelector, padAddress(to), padUint256(amount))
	if err := c.send(ctx, data); err != nil {
		return fmt.Errorf("erc20: transfer out to %s: %w", to, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &c.token, Data: data}
	return c.eth.CallContract(ctx, msg, nil)
}

// send signs, submits, and waits for one custody transaction. A reverted
// receipt is an error; the caller decides what rolls back.
func (c *Client) send(ctx context.Context, data []byte) error {
	nonce, err := c.eth.PendingNonceAt(ctx, c.custody)
	if err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, c.token, new(big.Int), c.gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return fmt.Errorf("wait mined %s: %w", signed.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", signed.Hash())
	}
	return nil
}

func packCall(selector []byte, words ...[]byte) []byte {
	data := make([]byte, 0, 4+32*len(words))
	data = append(data, selector...)
	for _, w := range words {
		data = append(data, w...)
	}
	return data
}

func padAddress(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

func padUint256(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

func wordToUint256(out []byte) (*uint256.Int, error) {
	if len(out) != 32 {
		return nil, fmt.Errorf("erc20: unexpected return length %d", len(out))
	}
	return new(uint256.Int).SetBytes(out), nil
}
