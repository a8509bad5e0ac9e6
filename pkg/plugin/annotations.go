package plugin

// PrepareAnnotation is the hook for normalising annotation queries before
// they are stored. It currently returns q as is.
func PrepareAnnotation(q AnnotationQuery) AnnotationQuery {
	return q
}

// PrepareQueryForExecution returns the payload an annotation should run. The
// second return value is false when the annotation has no target, which means
// there is nothing to run rather than an error. The target is trusted as
// stored and is not validated again.
func PrepareQueryForExecution(q AnnotationQuery) (Payload, bool) {
	if q.Target == nil {
		return Payload{}, false
	}
	return *q.Target, true
}
