package app

import (
	"fmt"

	keysService "github.com/wardenauth/warden/internal/keys/service"
	tokenRepository "github.com/wardenauth/warden/internal/token/repository"
	tokenService "github.com/wardenauth/warden/internal/token/service"
	tokenUsecase "github.com/wardenauth/warden/internal/token/usecase"
)

// KeyStore returns the signing key store selected by configuration, wrapped
// in a caching layer.
func (c *Container) KeyStore() (keysService.KeyStore, error) {
	var err error
	c.keyStoreInit.Do(func() {
		c.keyStore, err = c.initKeyStore()
		if err != nil {
			c.initErrors["keyStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyStore"]; exists {
		return nil, storedErr
	}
	return c.keyStore, nil
}

// AccessTokenService returns the signed access token service.
func (c *Container) AccessTokenService() (tokenService.AccessTokenService, error) {
	var err error
	c.accessTokenServiceInit.Do(func() {
		c.accessTokenService, err = c.initAccessTokenService()
		if err != nil {
			c.initErrors["accessTokenService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessTokenService"]; exists {
		return nil, storedErr
	}
	return c.accessTokenService, nil
}

// RefreshTokenService returns the opaque refresh token service.
func (c *Container) RefreshTokenService() tokenService.RefreshTokenService {
	c.refreshTokenServiceInit.Do(func() {
		c.refreshTokenService = tokenService.NewRefreshTokenService()
	})
	return c.refreshTokenService
}

// RefreshTokenRepository returns the refresh token repository based on database driver.
func (c *Container) RefreshTokenRepository() (tokenUsecase.RefreshTokenRepository, error) {
	var err error
	c.refreshTokenRepoInit.Do(func() {
		c.refreshTokenRepo, err = c.initRefreshTokenRepository()
		if err != nil {
			c.initErrors["refreshTokenRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["refreshTokenRepo"]; exists {
		return nil, storedErr
	}
	return c.refreshTokenRepo, nil
}

// TokenUseCase returns the token use case.
func (c *Container) TokenUseCase() (tokenUsecase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// initKeyStore creates the key store backend and wraps it in a cache.
func (c *Container) initKeyStore() (keysService.KeyStore, error) {
	var backend keysService.KeyStore

	switch c.config.KeyStoreBackend {
	case "vault":
		store, err := keysService.NewVaultKeyStore(c.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create vault key store: %w", err)
		}
		backend = store
	case "local":
		store, err := keysService.NewLocalKeyStore(c.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create local key store: %w", err)
		}
		backend = store
	default:
		return nil, fmt.Errorf("unsupported key store backend: %s", c.config.KeyStoreBackend)
	}

	return keysService.NewCachedKeyStore(backend, c.config.KeyCacheSize, c.config.KeyCacheTTL), nil
}

// initAccessTokenService creates the access token service with its key store.
func (c *Container) initAccessTokenService() (tokenService.AccessTokenService, error) {
	keyStore, err := c.KeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get key store for access token service: %w", err)
	}

	return tokenService.NewAccessTokenService(c.config, keyStore), nil
}

// initRefreshTokenRepository creates the refresh token repository instance.
func (c *Container) initRefreshTokenRepository() (tokenUsecase.RefreshTokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for refresh token repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return tokenRepository.NewMySQLRefreshTokenRepository(db), nil
	case "postgres":
		return tokenRepository.NewPostgreSQLRefreshTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTokenUseCase creates the token use case with all its dependencies.
func (c *Container) initTokenUseCase() (tokenUsecase.TokenUseCase, error) {
	refreshTokenRepo, err := c.RefreshTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token repository for token use case: %w", err)
	}

	accessTokenService, err := c.AccessTokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get access token service for token use case: %w", err)
	}

	return tokenUsecase.NewTokenUseCase(
		c.config,
		refreshTokenRepo,
		accessTokenService,
		c.RefreshTokenService(),
	), nil
}
