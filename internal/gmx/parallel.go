// internal/gmx/parallel.go
package gmx

import (
	"context"
	"sync"
)

// Parallel은 n개의 작업을 최대 workers개의 고루틴으로 실행합니다.
// 작업 하나의 실패가 다른 작업을 중단시키지 않고, 인덱스별 에러
// 슬라이스로 돌려줍니다. 호출자는 조인이 끝난 뒤에만 결과를 읽어야 합니다.
func Parallel(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) []error {
	if workers <= 0 {
		workers = 8
	}

	errs := make([]error, n)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		// 컨텍스트가 이미 취소됐으면 남은 작업은 실패 처리
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = fn(ctx, i)
		}(i)
	}

	wg.Wait()
	return errs
}
