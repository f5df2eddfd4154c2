package chain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// HexOrInt handles fields that can be either a number or a hex string.
// It uses big.Int internally to handle arbitrarily large values without overflow.
type HexOrInt struct {
	Value *big.Int
}

// UnmarshalJSON accepts numbers (e.g. 12345) or strings ("0xabc" or "12345")
func (h *HexOrInt) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		h.Value = big.NewInt(0)
		return nil
	}

	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		h.Value = big.NewInt(0)
		return nil
	}

	v := new(big.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, ok := v.SetString(s[2:], 16); !ok {
			return fmt.Errorf("invalid hex integer: %s", s)
		}
	} else {
		if _, ok := v.SetString(s, 10); !ok {
			return fmt.Errorf("invalid decimal integer: %s", s)
		}
	}
	h.Value = v
	return nil
}

type KamiResponse[T any] struct {
	StatusCode int            `json:"statusCode"`
	Success    bool           `json:"success"`
	Data       T              `json:"data"`
	Error      map[string]any `json:"error"`
}

type (
	SubnetMetagraphResponse = KamiResponse[SubnetMetagraph]
	LatestBlockResponse     = KamiResponse[LatestBlock]
	KeyringPairInfoResponse = KamiResponse[KeyringPairInfo]
	ExtrinsicHashResponse   = KamiResponse[string]
)

// SubnetMetagraph is the subset of the subnet metagraph the miner
// consumes: registration data plus a few subnet vitals.
type SubnetMetagraph struct {
	Netuid              int        `json:"netuid"`
	Name                string     `json:"name"`
	Symbol              string     `json:"symbol"`
	Block               int        `json:"block"`
	Tempo               int        `json:"tempo"`
	NumUids             int        `json:"numUids"`
	MaxUids             int        `json:"maxUids"`
	RegistrationAllowed bool       `json:"registrationAllowed"`
	ImmunityPeriod      int        `json:"immunityPeriod"`
	Difficulty          HexOrInt   `json:"difficulty"`
	ServingRateLimit    int        `json:"servingRateLimit"`
	Hotkeys             []string   `json:"hotkeys"`
	Coldkeys            []string   `json:"coldkeys"`
	Axons               []AxonInfo `json:"axons"`
	Active              []bool     `json:"active"`
	LastUpdate          []int      `json:"lastUpdate"`
	BlockAtRegistration []int      `json:"blockAtRegistration"`
}

type AxonInfo struct {
	Block        int    `json:"block"`
	Version      int    `json:"version"`
	IP           string `json:"ip"`
	Port         int    `json:"port"`
	IPType       int    `json:"ipType"`
	Protocol     int    `json:"protocol"`
	Placeholder1 int    `json:"placeholder1"`
	Placeholder2 int    `json:"placeholder2"`
}

type LatestBlock struct {
	ParentHash     string `json:"parentHash"`
	BlockNumber    int    `json:"blockNumber"`
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
}

type KeyringPair struct {
	Address   string         `json:"address"`
	IsLocked  bool           `json:"isLocked"`
	Meta      map[string]any `json:"meta"`
	PublicKey map[string]any `json:"publicKey"`
	Type      string         `json:"type"`
}

type KeyringPairInfo struct {
	KeyringPair   KeyringPair `json:"keyringPair"`
	WalletColdkey string      `json:"walletColdkey"`
}

// SetCommitmentParams carries the metadata string committed for the
// hotkey on the given subnet.
type SetCommitmentParams struct {
	Netuid int    `json:"netuid"`
	Data   string `json:"data"`
}
