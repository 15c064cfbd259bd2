package generator

// This file houses the intermediate representation (IR) structures the
// emitters produce and the templates consume.

// node kinds for template-driven code emission
const (
	nodeKindComment     = "comment"
	nodeKindError       = "error"
	nodeKindStmt        = "stmt"
	nodeKindDeclare     = "declare"
	nodeKindDiscard     = "discard"
	nodeKindVar         = "var"
	nodeKindAssign      = "assign"
	nodeKindBindChecked = "bindChecked"
	nodeKindGuarded     = "guarded"
	nodeKindLoop        = "loop"
	nodeKindIfOK        = "ifOK"
	nodeKindIf          = "if"
	nodeKindBlock       = "block"
	nodeKindSwitch      = "switch"
	nodeKindCase        = "case"
)

// nodeKinds lists every kind; each needs a node_<kind> template.
var nodeKinds = []string{
	nodeKindComment, nodeKindError, nodeKindStmt, nodeKindDeclare, nodeKindDiscard,
	nodeKindVar, nodeKindAssign, nodeKindBindChecked, nodeKindGuarded, nodeKindLoop,
	nodeKindIfOK, nodeKindIf, nodeKindBlock, nodeKindSwitch, nodeKindCase,
}

// fileModel is the root template model for a generated file.
type fileModel struct {
	Package string
	Source  string
	Imports []importModel
	Views   []viewModel
	Command string
	Version string
}

type importModel struct {
	Name string
	Path string
}

// viewModel is everything the templates need to emit one view.
type viewModel struct {
	Name       string
	StructName string
	InitName   string
	Receiver   string
	Params     string
	Fields     []fieldModel
	RootName   string
	RootType   string
	Init       []codeNode
	Update     []codeNode
}

// fieldModel is one field of the widgets struct.
type fieldModel struct {
	Name string
	Type string
}

// codeNode is an IR node used by templates to emit code fragments.
//
//	comment      // Comment
//	error        /* viewgen: Comment */
//	stmt         Code
//	declare      Var := Expr, or var Var Type = Expr
//	discard      _ = Var
//	var          var Var Type
//	assign       Var = Expr
//	bindChecked  Var, OK := Expr; if !OK { panic(Comment) }
//	guarded      if Var := Expr; Var != nil { Children }
//	loop         for _, Var := range Expr { Children }
//	ifOK         if Var, OK := Expr; OK { Children }
//	if           if Expr { Children }
//	block        { Children }
//	switch       switch Expr { Children }
//	case         case Expr: Children, or default: when Default
type codeNode struct {
	Kind     string
	Var      string
	OK       string
	Type     string
	Expr     string
	Code     string
	Comment  string
	Default  bool
	Children []codeNode
	// Pos is the source position the node was generated from, emitted as
	// a comment in debug mode.
	Pos string
}
