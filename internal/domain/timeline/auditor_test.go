package timeline_test

import (
	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/repository/mocks"
)

func newAuditor(repo *mocks.ActivityRepository) *activity.Service {
	return activity.NewService(repo, nil, nil)
}
