package env

import "errors"

var (
	ErrConfig         = errors.New("invalid environment config")
	ErrInit           = errors.New("environment initialization failed")
	ErrFeatureWidth   = errors.New("feature width mismatch")
	ErrShortHistory   = errors.New("not enough candles")
	ErrActionShape    = errors.New("action length does not match symbols")
	ErrEpisodeDone    = errors.New("episode is done, call Reset")
	ErrInitialBalance = errors.New("initial balance must be positive")
	ErrStepInProgress = errors.New("step already in progress")
)
