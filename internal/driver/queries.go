package driver

// Nodes are stored under a single :Actor label with a kind property
// (person/institution/unknown), mirroring the source data's single node
// table. Connections are undirected for analysis; pair_key (the sorted
// normalized name pair) keeps a→b and b→a from existing twice.
const (
	SaveNodeQuery = `
		MERGE (n:Actor {name_normalized: $name_normalized})
		SET n.name = $name,
			n.kind = $kind,
			n.subtype = $subtype
		RETURN n.name_normalized AS name_normalized
	`

	SaveEdgeQuery = `
		MATCH (a:Actor {name_normalized: $source_normalized})
		MATCH (b:Actor {name_normalized: $target_normalized})
		MERGE (a)-[e:CONNECTED_TO {pair_key: $pair_key}]->(b)
		SET e.kind = $kind
		RETURN e.pair_key AS pair_key
	`

	DeleteNodeQuery = `
		MATCH (n:Actor {name_normalized: $name_normalized})
		DETACH DELETE n
	`

	GetNodeQuery = `
		MATCH (n:Actor {name_normalized: $name_normalized})
		RETURN n.name AS name, n.kind AS kind, n.subtype AS subtype
	`

	GetAllNodesQuery = `
		MATCH (n:Actor)
		RETURN n.name AS name, n.kind AS kind, n.subtype AS subtype
		ORDER BY n.name_normalized
	`

	GetAllEdgesQuery = `
		MATCH (a:Actor)-[e:CONNECTED_TO]->(b:Actor)
		RETURN a.name AS source, b.name AS target, e.kind AS kind
		ORDER BY e.pair_key
	`
)
