package graph

// Op names a statement kind. Neo4j ignores it; it labels errors and spans, and
// lets the in-memory graph dispatch without parsing Cypher.
type Op string

const (
	OpUpsertProgram Op = "upsert_program"
	OpUpsertModule  Op = "upsert_module"
	OpUpsertDay     Op = "upsert_day"
	OpUpsertPersona Op = "upsert_persona"
	OpCreateRoot    Op = "create_root"
	OpReuseRoot     Op = "reuse_root"
	OpCreateTurn    Op = "create_turn"
	OpTurnText      Op = "turn_text"
)

// Statement is one parameterized Cypher statement.
type Statement struct {
	Op     Op
	Cypher string
	Params map[string]any
}

const (
	RoleRoot = "root"

	LabelProgram = "Program"
	LabelModule  = "Module"
	LabelDay     = "Day"
	LabelPersona = "Persona"
	LabelTurn    = "Turn"

	RelHasModule  = "HAS_MODULE"
	RelHasDay     = "HAS_DAY"
	RelHasPersona = "HAS_PERSONA"
	RelRoots      = "ROOTS"
	RelChildOf    = "CHILD_OF"
)

// Catalog nodes are merged on id only. The ordering key is re-set on every upsert.

func UpsertProgram(name string, seq int64) Statement {
	return Statement{
		Op: OpUpsertProgram,
		Cypher: `
MERGE (p:Program {id: $program_id})
SET p.seq = $program_seq
`,
		Params: map[string]any{"program_id": name, "program_seq": seq},
	}
}

func UpsertModule(program string, module, seq int64) Statement {
	return Statement{
		Op: OpUpsertModule,
		Cypher: `
MERGE (m:Module {id: $module_id})
SET m.seq = $module_seq
WITH m
MATCH (p:Program {id: $program_id})
MERGE (p)-[:HAS_MODULE]->(m)
RETURN m.id AS id
`,
		Params: map[string]any{"module_id": module, "module_seq": seq, "program_id": program},
	}
}

func UpsertDay(module, day, seq int64) Statement {
	return Statement{
		Op: OpUpsertDay,
		Cypher: `
MERGE (d:Day {id: $day_id})
SET d.seq = $day_seq
WITH d
MATCH (m:Module {id: $module_id})
MERGE (m)-[:HAS_DAY]->(d)
RETURN d.id AS id
`,
		Params: map[string]any{"day_id": day, "day_seq": seq, "module_id": module},
	}
}

// UpsertPersona also takes the persona node's write lock for the rest of the
// transaction, which serializes chain building per persona.
func UpsertPersona(day int64, persona string, seq int64) Statement {
	return Statement{
		Op: OpUpsertPersona,
		Cypher: `
MERGE (per:Persona {id: $persona_id})
SET per.seq = $persona_seq
WITH per
MATCH (d:Day {id: $day_id})
MERGE (d)-[:HAS_PERSONA]->(per)
RETURN per.id AS id
`,
		Params: map[string]any{"persona_id": persona, "persona_seq": seq, "day_id": day},
	}
}

// CreateRoot always creates a new anchor, even when the persona already roots one.
func CreateRoot(persona, rootID string) Statement {
	return Statement{
		Op: OpCreateRoot,
		Cypher: `
MATCH (per:Persona {id: $persona_id})
CREATE (root:Turn {id: $root_id, role: 'root', ts: timestamp()})
CREATE (per)-[:ROOTS]->(root)
RETURN root.id AS id
`,
		Params: map[string]any{"persona_id": persona, "root_id": rootID},
	}
}

// ReuseRoot returns the persona's oldest root, creating one with rootID when
// none exists.
func ReuseRoot(persona, rootID string) Statement {
	return Statement{
		Op: OpReuseRoot,
		Cypher: `
MATCH (per:Persona {id: $persona_id})
MERGE (per)-[:ROOTS]->(root:Turn {role: 'root'})
ON CREATE SET root.id = $root_id, root.ts = timestamp()
WITH root
ORDER BY root.ts ASC
LIMIT 1
RETURN root.id AS id
`,
		Params: map[string]any{"persona_id": persona, "root_id": rootID},
	}
}

// CreateTurn appends a turn under parentID. Turns are never updated afterwards.
func CreateTurn(turnID, parentID, role, text string) Statement {
	return Statement{
		Op: OpCreateTurn,
		Cypher: `
MATCH (parent:Turn {id: $parent_id})
CREATE (t:Turn {
    id: $turn_id,
    role: $role,
    text: $text,
    accepted: true,
    parent_id: $parent_id,
    ts: timestamp()
})
CREATE (t)-[:CHILD_OF]->(parent)
RETURN t.id AS id
`,
		Params: map[string]any{"turn_id": turnID, "parent_id": parentID, "role": role, "text": text},
	}
}

func TurnText(id string) Statement {
	return Statement{
		Op: OpTurnText,
		Cypher: `
MATCH (t:Turn {id: $id})
RETURN t.text AS text
LIMIT 1
`,
		Params: map[string]any{"id": id},
	}
}
