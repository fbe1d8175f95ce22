package migrations

import (
	"fmt"

	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/migration"
)

// migrateTo76 performs the following changes:
//
//	# BEFORE:
//	PreferencesController:
//	  advancedGasFee: {maxBaseFee: 10, priorityFee: 10}
//	NetworkController:
//	  provider: {chainId: '0x5'}
//
//	# AFTER:
//	PreferencesController:
//	  advancedGasFee:
//	    '0x5': {maxBaseFee: 10, priorityFee: 10}
//	NetworkController:
//	  provider: {chainId: '0x5'}
func migrateTo76(state *domain.State, env migration.Env) (*domain.State, error) {
	prefs, ok, err := state.Controller("PreferencesController")
	if err != nil || !ok {
		return state, err
	}

	fee, ok, err := domain.Field[map[string]any](prefs, "advancedGasFee")
	if err != nil || !ok {
		return state, err
	}

	if domain.KeyedByChain(fee) {
		return state, nil
	}

	if env.ChainID == "" {
		return nil, fmt.Errorf("%w: advancedGasFee is set but no chain identifier is configured", domain.ErrIncompatibleShape)
	}

	prefs["advancedGasFee"] = map[string]any{env.ChainID: fee}
	return state, nil
}
