package memory

import (
	"testing"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/credentialtest"
)

func TestCredentialRepository(t *testing.T) {
	credentialtest.Run(t, func(t *testing.T, clock *credentialtest.Clock) repository.CredentialRepository {
		return NewCredentialRepository(WithClock(clock.Now))
	})
}
