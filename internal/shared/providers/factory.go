package providers

import (
	"fmt"
	"time"

	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers/implementations"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

type Factory interface {
	Build(auth *provider.Auth) (provider.Provider, error)
}

type BasicFactory struct {
	log logutil.Log
}

func NewBasicFactory(log logutil.Log) *BasicFactory {
	return &BasicFactory{
		log: log,
	}
}

func (f BasicFactory) buildImpl(auth *provider.Auth) (provider.Provider, error) {
	switch auth.Provider {
	case implementations.GithubProviderName:
		return implementations.NewGithub(auth, f.log), nil
	}

	return nil, fmt.Errorf("invalid provider name %q in auth %#v", auth.Provider, auth)
}

func (f BasicFactory) Build(auth *provider.Auth) (provider.Provider, error) {
	p, err := f.buildImpl(auth)
	if err != nil {
		return nil, err
	}

	return implementations.NewStableProvider(p, time.Second*30, 3), nil
}
