package queries

// LegacyUnitMapping is the index definition the search above expects.
// group_code is a keyword so prefix queries match the leading digits.
const LegacyUnitMapping = `{
  "settings": {"number_of_shards": 1},
  "mappings": {
    "properties": {
      "group_code": {"type": "keyword"},
      "group_name": {"type": "text"},
      "city":       {"type": "keyword"},
      "uf":         {"type": "keyword"}
    }
  }
}`
