package sqlinline

// Entity status updates are assembled from whitelisted columns at runtime;
// each target table keeps a fixed audit marker line.
const (
	MarkerUpdateCharacter  = "--sql 7fb71f8c-9d16-47b9-8a9f-d4cd7c8d0c32"
	MarkerUpdateScene      = "--sql d3667338-9fcc-48cf-a890-b3ab906be83d"
	MarkerUpdateProp       = "--sql 423ff15c-813a-4adf-8c87-20ae5c6f91e1"
	MarkerUpdateStoryboard = "--sql 34dc359c-8c3f-4124-80ce-ab79ba017164"
)
