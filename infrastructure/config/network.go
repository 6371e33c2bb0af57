package config

import (
	"fmt"
	"os"
	"time"

	"github.com/holiman/uint256"
	"github.com/jessevdk/go-flags"
	"github.com/orvnet/orvd/domain/latticeconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet            bool   `long:"testnet" description:"Use the test network"`
	Simnet             bool   `long:"simnet" description:"Use the simulation test network"`
	Devnet             bool   `long:"devnet" description:"Use the development test network"`
	OverrideParamsFile string `long:"override-params-file" description:"Overrides network params from a YAML file (allowed only on devnet and simnet)"`

	ActiveNetParams *latticeconfig.Params
}

type overrideParamsConfig struct {
	OnlineWeightQuorumPercent         *uint64 `yaml:"onlineWeightQuorumPercent"`
	OnlineWeightMinimum               *string `yaml:"onlineWeightMinimum"`
	OnlineWeightSamplePeriod          *string `yaml:"onlineWeightSamplePeriod"`
	OnlineWeightMaxSamples            *uint64 `yaml:"onlineWeightMaxSamples"`
	WorkThresholdEpoch0               *uint64 `yaml:"workThresholdEpoch0"`
	WorkThresholdEpoch1Send           *uint64 `yaml:"workThresholdEpoch1Send"`
	WorkThresholdEpoch1Receive        *uint64 `yaml:"workThresholdEpoch1Receive"`
	ElectionAnnouncementInterval      *string `yaml:"electionAnnouncementInterval"`
	ElectionAnnouncementThreshold     *int    `yaml:"electionAnnouncementThreshold"`
	ConfirmationHeightUnboundedCutoff *uint64 `yaml:"confirmationHeightUnboundedCutoff"`
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default net is main net
	networkFlags.ActiveNetParams = latticeconfig.MainnetParams.Clone()
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		networkFlags.ActiveNetParams = latticeconfig.TestnetParams.Clone()
	}
	if networkFlags.Simnet {
		numNets++
		networkFlags.ActiveNetParams = latticeconfig.SimnetParams.Clone()
	}
	if networkFlags.Devnet {
		numNets++
		networkFlags.ActiveNetParams = latticeconfig.DevnetParams.Clone()
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, simnet, devnet, etc.) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}

	err := networkFlags.overrideParams()
	if err != nil {
		return err
	}

	return networkFlags.ActiveNetParams.Validate()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *latticeconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideParams() error {
	if networkFlags.OverrideParamsFile == "" {
		return nil
	}

	if !networkFlags.Devnet && !networkFlags.Simnet {
		return errors.Errorf("override-params-file is allowed only when using devnet or simnet")
	}

	overrideParamsFile, err := os.Open(networkFlags.OverrideParamsFile)
	if err != nil {
		return err
	}
	defer overrideParamsFile.Close()

	decoder := yaml.NewDecoder(overrideParamsFile)
	decoder.KnownFields(true)
	config := &overrideParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "couldn't parse %s", networkFlags.OverrideParamsFile)
	}

	params := networkFlags.ActiveNetParams

	if config.OnlineWeightQuorumPercent != nil {
		params.OnlineWeightQuorumPercent = *config.OnlineWeightQuorumPercent
	}

	if config.OnlineWeightMinimum != nil {
		minimum, err := uint256.FromDecimal(*config.OnlineWeightMinimum)
		if err != nil {
			return errors.Wrapf(err, "couldn't parse onlineWeightMinimum %s", *config.OnlineWeightMinimum)
		}
		params.OnlineWeightMinimum = *minimum
	}

	if config.OnlineWeightSamplePeriod != nil {
		period, err := time.ParseDuration(*config.OnlineWeightSamplePeriod)
		if err != nil {
			return errors.Wrapf(err, "couldn't parse onlineWeightSamplePeriod")
		}
		params.OnlineWeightSamplePeriod = period
	}

	if config.OnlineWeightMaxSamples != nil {
		params.OnlineWeightMaxSamples = *config.OnlineWeightMaxSamples
	}

	if config.WorkThresholdEpoch0 != nil {
		params.WorkThresholdEpoch0 = *config.WorkThresholdEpoch0
	}

	if config.WorkThresholdEpoch1Send != nil {
		params.WorkThresholdEpoch1Send = *config.WorkThresholdEpoch1Send
	}

	if config.WorkThresholdEpoch1Receive != nil {
		params.WorkThresholdEpoch1Receive = *config.WorkThresholdEpoch1Receive
	}

	if config.ElectionAnnouncementInterval != nil {
		interval, err := time.ParseDuration(*config.ElectionAnnouncementInterval)
		if err != nil {
			return errors.Wrapf(err, "couldn't parse electionAnnouncementInterval")
		}
		params.ElectionAnnouncementInterval = interval
	}

	if config.ElectionAnnouncementThreshold != nil {
		params.ElectionAnnouncementThreshold = *config.ElectionAnnouncementThreshold
	}

	if config.ConfirmationHeightUnboundedCutoff != nil {
		params.ConfirmationHeightUnboundedCutoff = *config.ConfirmationHeightUnboundedCutoff
	}

	return nil
}
