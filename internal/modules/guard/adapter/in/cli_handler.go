package in

import (
	"context"

	"pomoguard/internal/modules/guard/dto"
	guardin "pomoguard/internal/modules/guard/port/in"
)

type CLIHandler struct {
	usecase guardin.Usecase
}

func NewCLIHandler(usecase guardin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Check(ctx context.Context, url string) (dto.DecisionOutput, error) {
	return h.usecase.Check(ctx, url)
}
