package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *ClassifiedError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *ClassifiedError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Pipeline errors

func CrawlFailed(root string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryCrawl, SeverityFatal, "source crawl failed").
		WithContext("root", root)
}

func NavigationUnavailable(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryRender, SeverityFatal, "navigation file could not be rendered").
		WithContext("path", path)
}

func RenderFailed(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryRender, SeverityWarning, "document could not be rendered").
		WithContext("path", path)
}

func OutputRootError(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output directory could not be prepared").
		WithContext("path", path)
}

func WriteFailed(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "page could not be written").
		WithContext("path", path)
}

// Runtime errors

func ServerError(addr string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryNetwork, SeverityFatal, "http server failed").
		WithContext("addr", addr)
}

func InternalError(message string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
