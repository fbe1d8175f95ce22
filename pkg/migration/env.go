package migration

import "github.com/aretw0/statelift/pkg/domain"

// Env carries the ambient values a transform may depend on.
// The runner resolves it from the current state before every step.
type Env struct {
	// ChainID is the identifier of the currently configured network, e.g. "0x5".
	// Empty when the state does not record one.
	ChainID string
}

// EnvResolver derives the Env for a state.
type EnvResolver func(state *domain.State) (Env, error)

// ResolveEnv reads the active chain identifier from
// data.NetworkController.provider.chainId. A missing or malformed network
// controller yields an empty Env; transforms that need the chain report it.
func ResolveEnv(state *domain.State) (Env, error) {
	raw, ok, err := state.Path("NetworkController", "provider", "chainId")
	if err != nil || !ok {
		return Env{}, nil
	}
	chainID, isString := raw.(string)
	if !isString {
		return Env{}, nil
	}
	return Env{ChainID: chainID}, nil
}
