package invoicing

// PayerBucket is the set of services billed to one normalized payer
type PayerBucket struct {
	PayerKey         string
	PayerDisplayName string
	Services         []ServiceLineItem
}

// GroupByPayer partitions services by normalized payer key. Buckets keep the
// order in which each payer first appears, and the display name is taken from
// that first service.
func GroupByPayer(services []ServiceLineItem) []PayerBucket {
	index := make(map[string]int)
	buckets := make([]PayerBucket, 0)
	for _, raw := range services {
		s := raw.Normalized()
		i, ok := index[s.PayerKey]
		if !ok {
			i = len(buckets)
			index[s.PayerKey] = i
			buckets = append(buckets, PayerBucket{
				PayerKey:         s.PayerKey,
				PayerDisplayName: s.PayerDisplayName,
			})
		}
		buckets[i].Services = append(buckets[i].Services, s)
	}
	return buckets
}
