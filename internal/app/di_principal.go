package app

import (
	"fmt"

	principalHTTP "github.com/wardenauth/warden/internal/principal/http"
	principalRepository "github.com/wardenauth/warden/internal/principal/repository"
	principalUsecase "github.com/wardenauth/warden/internal/principal/usecase"
)

// PrincipalRepository returns the principal repository based on database driver.
func (c *Container) PrincipalRepository() (principalUsecase.PrincipalRepository, error) {
	var err error
	c.principalRepoInit.Do(func() {
		c.principalRepo, err = c.initPrincipalRepository()
		if err != nil {
			c.initErrors["principalRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["principalRepo"]; exists {
		return nil, storedErr
	}
	return c.principalRepo, nil
}

// PrincipalUseCase returns the principal use case.
func (c *Container) PrincipalUseCase() (principalUsecase.UseCase, error) {
	var err error
	c.principalUseCaseInit.Do(func() {
		c.principalUseCase, err = c.initPrincipalUseCase()
		if err != nil {
			c.initErrors["principalUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["principalUseCase"]; exists {
		return nil, storedErr
	}
	return c.principalUseCase, nil
}

// PrincipalHandler returns the HTTP handler for principal administration.
func (c *Container) PrincipalHandler() (*principalHTTP.PrincipalHandler, error) {
	var err error
	c.principalHandlerInit.Do(func() {
		c.principalHandler, err = c.initPrincipalHandler()
		if err != nil {
			c.initErrors["principalHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["principalHandler"]; exists {
		return nil, storedErr
	}
	return c.principalHandler, nil
}

// initPrincipalRepository creates the principal repository instance.
func (c *Container) initPrincipalRepository() (principalUsecase.PrincipalRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for principal repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return principalRepository.NewMySQLPrincipalRepository(db), nil
	case "postgres":
		return principalRepository.NewPostgreSQLPrincipalRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPrincipalUseCase creates the principal use case with all its dependencies.
func (c *Container) initPrincipalUseCase() (principalUsecase.UseCase, error) {
	principalRepo, err := c.PrincipalRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for principal use case: %w", err)
	}

	useCase, err := principalUsecase.NewPrincipalUseCase(principalRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to create principal use case: %w", err)
	}

	return useCase, nil
}

// initPrincipalHandler creates the principal HTTP handler with all its dependencies.
func (c *Container) initPrincipalHandler() (*principalHTTP.PrincipalHandler, error) {
	principalUseCase, err := c.PrincipalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal use case for principal handler: %w", err)
	}

	return principalHTTP.NewPrincipalHandler(principalUseCase, c.Logger()), nil
}
