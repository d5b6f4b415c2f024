// Package csvutil reads and writes delimited text files as streams of
// records.
//
// # Records
//
// A [Record] maps column names to [Value]s and remembers the order in which
// columns were first set. Values are scalars (string, int, float, bool, null)
// or structured (list, map). Structured values are flattened to compact JSON
// when written, so they always occupy a single field.
//
// # Reading
//
// [Read] returns [Rows], a single-pass stream:
//
//	rows, err := csvutil.Read("patents.csv", csvutil.ReadOptions{Fields: []string{"id", "name"}})
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//	for rec, err := range rows.All() {
//	    ...
//	}
//
// The default delimiter is '|', the default encoding strips a UTF-8 BOM, NUL
// bytes are removed before parsing and cells longer than
// [DefaultMaxFieldSize] are rejected unless ReadOptions.UseMaxSize is set.
//
// # Writing
//
// [Write] drains a [Source] into a file. Columns that show up after the first
// record are appended to the header; rows written before that get empty
// cells for them. Set WriteOptions.ShardSize to split output:
//
//	for shard := 1; ; shard++ {
//	    res, err := csvutil.Write("", rows, csvutil.WriteOptions{ShardSize: 50000, ShardNum: shard})
//	    if err != nil || res.Path == "" {
//	        break
//	    }
//	    handle(res.Path)
//	    if !res.More {
//	        break
//	    }
//	}
//
// # Indexing
//
// [IndexRows], [IndexValues] and [IndexGroups] load a file into a map keyed
// by one column. A missing key or value column fails with a
// [MissingColumnError] listing the columns the row actually has.
package csvutil
