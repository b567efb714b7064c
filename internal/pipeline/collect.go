package pipeline

// collectResults 逐项处理并收集部分失败
// 单项失败只记录错误信息，不影响其余项的处理
func collectResults[T any, R any](items []T, fn func(T) (R, error)) ([]R, []string) {
	results := make([]R, 0, len(items))
	var errs []string

	for _, item := range items {
		result, err := fn(item)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		results = append(results, result)
	}

	return results, errs
}
