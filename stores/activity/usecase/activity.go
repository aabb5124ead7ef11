package usecase

import (
	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain/activity"
)

type impl struct {
	repo activity.Repo
}

func New(repo activity.Repo) activity.Usecase {
	return &impl{repo}
}

func (im *impl) Insert(c ctx.Ctx, a *activity.Activity) error {
	return im.repo.Insert(c, a)
}

func (im *impl) FindAll(c ctx.Ctx, opts ...activity.FindAllOptionsFunc) ([]*activity.Activity, error) {
	return im.repo.FindAll(c, opts...)
}

func (im *impl) Count(c ctx.Ctx, opts ...activity.FindAllOptionsFunc) (int, error) {
	return im.repo.Count(c, opts...)
}
