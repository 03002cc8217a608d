package app

import (
	"fmt"

	authzHTTP "github.com/wardenauth/warden/internal/authz/http"
	authzRepository "github.com/wardenauth/warden/internal/authz/repository"
	authzService "github.com/wardenauth/warden/internal/authz/service"
	authzUsecase "github.com/wardenauth/warden/internal/authz/usecase"
)

// Evaluator cache capacities. TTLs come from configuration; the entry counts
// are generous for any realistic role and policy catalog.
const (
	roleCacheSize   = 256
	policyCacheSize = 256
)

// RoleRepository returns the role repository based on database driver.
func (c *Container) RoleRepository() (authzUsecase.RoleRepository, error) {
	var err error
	c.roleRepoInit.Do(func() {
		c.roleRepo, err = c.initRoleRepository()
		if err != nil {
			c.initErrors["roleRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleRepo"]; exists {
		return nil, storedErr
	}
	return c.roleRepo, nil
}

// RoleAssignmentRepository returns the role assignment repository based on database driver.
func (c *Container) RoleAssignmentRepository() (authzUsecase.RoleAssignmentRepository, error) {
	var err error
	c.roleAssignmentRepoInit.Do(func() {
		c.roleAssignmentRepo, err = c.initRoleAssignmentRepository()
		if err != nil {
			c.initErrors["roleAssignmentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleAssignmentRepo"]; exists {
		return nil, storedErr
	}
	return c.roleAssignmentRepo, nil
}

// PolicyRepository returns the policy repository based on database driver.
func (c *Container) PolicyRepository() (authzUsecase.PolicyRepository, error) {
	var err error
	c.policyRepoInit.Do(func() {
		c.policyRepo, err = c.initPolicyRepository()
		if err != nil {
			c.initErrors["policyRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyRepo"]; exists {
		return nil, storedErr
	}
	return c.policyRepo, nil
}

// DecisionLogRepository returns the decision log repository based on database driver.
func (c *Container) DecisionLogRepository() (authzUsecase.DecisionLogRepository, error) {
	var err error
	c.decisionLogRepoInit.Do(func() {
		c.decisionLogRepo, err = c.initDecisionLogRepository()
		if err != nil {
			c.initErrors["decisionLogRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["decisionLogRepo"]; exists {
		return nil, storedErr
	}
	return c.decisionLogRepo, nil
}

// RbacEvaluator returns the role-based permission evaluator.
func (c *Container) RbacEvaluator() (authzService.RbacEvaluator, error) {
	var err error
	c.rbacEvaluatorInit.Do(func() {
		c.rbacEvaluator, err = c.initRbacEvaluator()
		if err != nil {
			c.initErrors["rbacEvaluator"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rbacEvaluator"]; exists {
		return nil, storedErr
	}
	return c.rbacEvaluator, nil
}

// AbacEvaluator returns the attribute-based policy evaluator.
func (c *Container) AbacEvaluator() (authzService.AbacEvaluator, error) {
	var err error
	c.abacEvaluatorInit.Do(func() {
		c.abacEvaluator, err = c.initAbacEvaluator()
		if err != nil {
			c.initErrors["abacEvaluator"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["abacEvaluator"]; exists {
		return nil, storedErr
	}
	return c.abacEvaluator, nil
}

// AuditSigner returns the decision log signer.
func (c *Container) AuditSigner() (authzService.AuditSigner, error) {
	var err error
	c.auditSignerInit.Do(func() {
		c.auditSigner, err = c.initAuditSigner()
		if err != nil {
			c.initErrors["auditSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditSigner"]; exists {
		return nil, storedErr
	}
	return c.auditSigner, nil
}

// AuditRecorder returns the asynchronous decision log recorder.
func (c *Container) AuditRecorder() (authzService.AuditRecorder, error) {
	var err error
	c.auditRecorderInit.Do(func() {
		c.auditRecorder, err = c.initAuditRecorder()
		if err != nil {
			c.initErrors["auditRecorder"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRecorder"]; exists {
		return nil, storedErr
	}
	return c.auditRecorder, nil
}

// AuthorizeUseCase returns the authorization use case.
func (c *Container) AuthorizeUseCase() (authzUsecase.AuthorizeUseCase, error) {
	var err error
	c.authorizeUseCaseInit.Do(func() {
		c.authorizeUseCase, err = c.initAuthorizeUseCase()
		if err != nil {
			c.initErrors["authorizeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorizeUseCase"]; exists {
		return nil, storedErr
	}
	return c.authorizeUseCase, nil
}

// RoleUseCase returns the role management use case.
func (c *Container) RoleUseCase() (authzUsecase.RoleUseCase, error) {
	var err error
	c.roleUseCaseInit.Do(func() {
		c.roleUseCase, err = c.initRoleUseCase()
		if err != nil {
			c.initErrors["roleUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleUseCase"]; exists {
		return nil, storedErr
	}
	return c.roleUseCase, nil
}

// PolicyUseCase returns the policy management use case.
func (c *Container) PolicyUseCase() (authzUsecase.PolicyUseCase, error) {
	var err error
	c.policyUseCaseInit.Do(func() {
		c.policyUseCase, err = c.initPolicyUseCase()
		if err != nil {
			c.initErrors["policyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyUseCase"]; exists {
		return nil, storedErr
	}
	return c.policyUseCase, nil
}

// DecisionLogUseCase returns the decision log use case.
func (c *Container) DecisionLogUseCase() (authzUsecase.DecisionLogUseCase, error) {
	var err error
	c.decisionLogUseCaseInit.Do(func() {
		c.decisionLogUseCase, err = c.initDecisionLogUseCase()
		if err != nil {
			c.initErrors["decisionLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["decisionLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.decisionLogUseCase, nil
}

// RoleHandler returns the HTTP handler for role administration.
func (c *Container) RoleHandler() (*authzHTTP.RoleHandler, error) {
	var err error
	c.roleHandlerInit.Do(func() {
		c.roleHandler, err = c.initRoleHandler()
		if err != nil {
			c.initErrors["roleHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleHandler"]; exists {
		return nil, storedErr
	}
	return c.roleHandler, nil
}

// PolicyHandler returns the HTTP handler for policy administration.
func (c *Container) PolicyHandler() (*authzHTTP.PolicyHandler, error) {
	var err error
	c.policyHandlerInit.Do(func() {
		c.policyHandler, err = c.initPolicyHandler()
		if err != nil {
			c.initErrors["policyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyHandler"]; exists {
		return nil, storedErr
	}
	return c.policyHandler, nil
}

// DecisionLogHandler returns the HTTP handler for decision log access.
func (c *Container) DecisionLogHandler() (*authzHTTP.DecisionLogHandler, error) {
	var err error
	c.decisionLogHandlerInit.Do(func() {
		c.decisionLogHandler, err = c.initDecisionLogHandler()
		if err != nil {
			c.initErrors["decisionLogHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["decisionLogHandler"]; exists {
		return nil, storedErr
	}
	return c.decisionLogHandler, nil
}

// initRoleRepository creates the role repository instance.
func (c *Container) initRoleRepository() (authzUsecase.RoleRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for role repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authzRepository.NewMySQLRoleRepository(db), nil
	case "postgres":
		return authzRepository.NewPostgreSQLRoleRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRoleAssignmentRepository creates the role assignment repository instance.
func (c *Container) initRoleAssignmentRepository() (authzUsecase.RoleAssignmentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for role assignment repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authzRepository.NewMySQLRoleAssignmentRepository(db), nil
	case "postgres":
		return authzRepository.NewPostgreSQLRoleAssignmentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPolicyRepository creates the policy repository instance.
func (c *Container) initPolicyRepository() (authzUsecase.PolicyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for policy repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authzRepository.NewMySQLPolicyRepository(db), nil
	case "postgres":
		return authzRepository.NewPostgreSQLPolicyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDecisionLogRepository creates the decision log repository instance.
func (c *Container) initDecisionLogRepository() (authzUsecase.DecisionLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for decision log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authzRepository.NewMySQLDecisionLogRepository(db), nil
	case "postgres":
		return authzRepository.NewPostgreSQLDecisionLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRbacEvaluator creates the RBAC evaluator with its repositories.
func (c *Container) initRbacEvaluator() (authzService.RbacEvaluator, error) {
	assignmentRepo, err := c.RoleAssignmentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get role assignment repository for rbac evaluator: %w", err)
	}

	roleRepo, err := c.RoleRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get role repository for rbac evaluator: %w", err)
	}

	return authzService.NewRbacEvaluator(assignmentRepo, roleRepo, roleCacheSize, c.config.RoleCacheTTL), nil
}

// initAbacEvaluator creates the ABAC evaluator with its policy reader.
func (c *Container) initAbacEvaluator() (authzService.AbacEvaluator, error) {
	policyRepo, err := c.PolicyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy repository for abac evaluator: %w", err)
	}

	return authzService.NewAbacEvaluator(policyRepo, policyCacheSize, c.config.PolicyCacheTTL), nil
}

// initAuditSigner creates the decision log signer.
func (c *Container) initAuditSigner() (authzService.AuditSigner, error) {
	if c.config.AuditSigningSecret == "" {
		return nil, fmt.Errorf("audit signing secret is not configured")
	}

	return authzService.NewAuditSigner([]byte(c.config.AuditSigningSecret)), nil
}

// initAuditRecorder creates the asynchronous decision log recorder.
func (c *Container) initAuditRecorder() (authzService.AuditRecorder, error) {
	decisionLogRepo, err := c.DecisionLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get decision log repository for audit recorder: %w", err)
	}

	auditSigner, err := c.AuditSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit signer for audit recorder: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for audit recorder: %w", err)
	}

	return authzService.NewAuditRecorder(
		decisionLogRepo,
		auditSigner,
		c.Logger(),
		businessMetrics,
		c.config.AuditQueueSize,
	), nil
}

// initAuthorizeUseCase creates the authorization use case with all its dependencies.
func (c *Container) initAuthorizeUseCase() (authzUsecase.AuthorizeUseCase, error) {
	principalRepo, err := c.PrincipalRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for authorize use case: %w", err)
	}

	rbacEvaluator, err := c.RbacEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to get rbac evaluator for authorize use case: %w", err)
	}

	abacEvaluator, err := c.AbacEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to get abac evaluator for authorize use case: %w", err)
	}

	auditRecorder, err := c.AuditRecorder()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit recorder for authorize use case: %w", err)
	}

	baseUseCase := authzUsecase.NewAuthorizeUseCase(principalRepo, rbacEvaluator, abacEvaluator, auditRecorder)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for authorize use case: %w", err)
		}
		return authzUsecase.NewAuthorizeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRoleUseCase creates the role management use case with all its dependencies.
func (c *Container) initRoleUseCase() (authzUsecase.RoleUseCase, error) {
	roleRepo, err := c.RoleRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get role repository for role use case: %w", err)
	}

	assignmentRepo, err := c.RoleAssignmentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get role assignment repository for role use case: %w", err)
	}

	principalRepo, err := c.PrincipalRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for role use case: %w", err)
	}

	baseUseCase := authzUsecase.NewRoleUseCase(roleRepo, assignmentRepo, principalRepo)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for role use case: %w", err)
		}
		return authzUsecase.NewRoleUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initPolicyUseCase creates the policy management use case with all its dependencies.
func (c *Container) initPolicyUseCase() (authzUsecase.PolicyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for policy use case: %w", err)
	}

	policyRepo, err := c.PolicyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy repository for policy use case: %w", err)
	}

	abacEvaluator, err := c.AbacEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to get abac evaluator for policy use case: %w", err)
	}

	baseUseCase := authzUsecase.NewPolicyUseCase(txManager, policyRepo, abacEvaluator)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for policy use case: %w", err)
		}
		return authzUsecase.NewPolicyUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initDecisionLogUseCase creates the decision log use case with all its dependencies.
func (c *Container) initDecisionLogUseCase() (authzUsecase.DecisionLogUseCase, error) {
	decisionLogRepo, err := c.DecisionLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get decision log repository for decision log use case: %w", err)
	}

	auditSigner, err := c.AuditSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit signer for decision log use case: %w", err)
	}

	return authzUsecase.NewDecisionLogUseCase(decisionLogRepo, auditSigner), nil
}

// initRoleHandler creates the role HTTP handler with all its dependencies.
func (c *Container) initRoleHandler() (*authzHTTP.RoleHandler, error) {
	roleUseCase, err := c.RoleUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get role use case for role handler: %w", err)
	}

	return authzHTTP.NewRoleHandler(roleUseCase, c.Logger()), nil
}

// initPolicyHandler creates the policy HTTP handler with all its dependencies.
func (c *Container) initPolicyHandler() (*authzHTTP.PolicyHandler, error) {
	policyUseCase, err := c.PolicyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy use case for policy handler: %w", err)
	}

	return authzHTTP.NewPolicyHandler(policyUseCase, c.Logger()), nil
}

// initDecisionLogHandler creates the decision log HTTP handler with all its dependencies.
func (c *Container) initDecisionLogHandler() (*authzHTTP.DecisionLogHandler, error) {
	decisionLogUseCase, err := c.DecisionLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get decision log use case for decision log handler: %w", err)
	}

	return authzHTTP.NewDecisionLogHandler(decisionLogUseCase, c.Logger()), nil
}
