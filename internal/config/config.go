package config

import (
	"time"

	"github.com/spf13/viper"
)

// FeeConfig holds the ledger rate tunables. All rates are basis points so
// every fee/threshold computation stays in integer arithmetic.
type FeeConfig struct {
	UnlockFeeBps    int64 // debited from the artist per unlock
	ActivationBps   int64 // balance required to flip a service live
	DeactivationBps int64 // balance floor before a live service is pulled
}

type UnlockConfig struct {
	ContactQRTTL time.Duration
	MaxRetries   int
}

func LoadFeeConfig() *FeeConfig {
	viper.SetDefault("fees.unlock_fee_bps", 50)   // 0.5%
	viper.SetDefault("fees.activation_bps", 1000) // 10%
	viper.SetDefault("fees.deactivation_bps", 50) // 0.5%

	return &FeeConfig{
		UnlockFeeBps:    viper.GetInt64("fees.unlock_fee_bps"),
		ActivationBps:   viper.GetInt64("fees.activation_bps"),
		DeactivationBps: viper.GetInt64("fees.deactivation_bps"),
	}
}

func LoadUnlockConfig() *UnlockConfig {
	viper.SetDefault("unlock.contact_qr_ttl", 5*time.Minute)
	viper.SetDefault("unlock.max_retries", 1)

	return &UnlockConfig{
		ContactQRTTL: viper.GetDuration("unlock.contact_qr_ttl"),
		MaxRetries:   viper.GetInt("unlock.max_retries"),
	}
}

// BpsOf applies a basis-point rate to an amount in cents, truncating
// toward zero. 50 bps of 200000 cents is 1000 cents.
func BpsOf(amountCents, bps int64) int64 {
	return amountCents * bps / 10000
}
