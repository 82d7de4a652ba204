package ast

import "strings"

// Kind is the clang spelling of a node kind
type Kind string

// Declarations
const (
	TranslationUnitDecl                    Kind = "TranslationUnitDecl"
	NamespaceDecl                          Kind = "NamespaceDecl"
	LinkageSpecDecl                        Kind = "LinkageSpecDecl"
	AccessSpecDecl                         Kind = "AccessSpecDecl"
	EmptyDecl                              Kind = "EmptyDecl"
	UsingDecl                              Kind = "UsingDecl"
	UsingDirectiveDecl                     Kind = "UsingDirectiveDecl"
	UsingShadowDecl                        Kind = "UsingShadowDecl"
	PragmaCommentDecl                      Kind = "PragmaCommentDecl"
	StaticAssertDecl                       Kind = "StaticAssertDecl"
	FileScopeAsmDecl                       Kind = "FileScopeAsmDecl"
	FriendDecl                             Kind = "FriendDecl"
	ClassTemplateDecl                      Kind = "ClassTemplateDecl"
	FunctionTemplateDecl                   Kind = "FunctionTemplateDecl"
	ClassTemplatePartialSpecializationDecl Kind = "ClassTemplatePartialSpecializationDecl"
	ClassTemplateSpecializationDecl        Kind = "ClassTemplateSpecializationDecl"
	EnumDecl                               Kind = "EnumDecl"
	EnumConstantDecl                       Kind = "EnumConstantDecl"
	RecordDecl                             Kind = "RecordDecl"
	CXXRecordDecl                          Kind = "CXXRecordDecl"
	FieldDecl                              Kind = "FieldDecl"
	IndirectFieldDecl                      Kind = "IndirectFieldDecl"
	FunctionDecl                           Kind = "FunctionDecl"
	CXXMethodDecl                          Kind = "CXXMethodDecl"
	CXXConstructorDecl                     Kind = "CXXConstructorDecl"
	CXXDestructorDecl                      Kind = "CXXDestructorDecl"
	CXXConversionDecl                      Kind = "CXXConversionDecl"
	ParmVarDecl                            Kind = "ParmVarDecl"
	VarDecl                                Kind = "VarDecl"
	TypedefDecl                            Kind = "TypedefDecl"
	TypeAliasDecl                          Kind = "TypeAliasDecl"
)

// Statements
const (
	CompoundStmt   Kind = "CompoundStmt"
	DeclStmt       Kind = "DeclStmt"
	NullStmt       Kind = "NullStmt"
	IfStmt         Kind = "IfStmt"
	WhileStmt      Kind = "WhileStmt"
	DoStmt         Kind = "DoStmt"
	ForStmt        Kind = "ForStmt"
	SwitchStmt     Kind = "SwitchStmt"
	CaseStmt       Kind = "CaseStmt"
	DefaultStmt    Kind = "DefaultStmt"
	BreakStmt      Kind = "BreakStmt"
	ContinueStmt   Kind = "ContinueStmt"
	GotoStmt       Kind = "GotoStmt"
	LabelStmt      Kind = "LabelStmt"
	ReturnStmt     Kind = "ReturnStmt"
	AttributedStmt Kind = "AttributedStmt"
)

// Expressions
const (
	IntegerLiteral           Kind = "IntegerLiteral"
	FloatingLiteral          Kind = "FloatingLiteral"
	CharacterLiteral         Kind = "CharacterLiteral"
	StringLiteral            Kind = "StringLiteral"
	CXXBoolLiteralExpr       Kind = "CXXBoolLiteralExpr"
	CXXNullPtrLiteralExpr    Kind = "CXXNullPtrLiteralExpr"
	GNUNullExpr              Kind = "GNUNullExpr"
	ParenExpr                Kind = "ParenExpr"
	ImplicitCastExpr         Kind = "ImplicitCastExpr"
	CStyleCastExpr           Kind = "CStyleCastExpr"
	CXXStaticCastExpr        Kind = "CXXStaticCastExpr"
	CXXReinterpretCastExpr   Kind = "CXXReinterpretCastExpr"
	CXXConstCastExpr         Kind = "CXXConstCastExpr"
	CXXFunctionalCastExpr    Kind = "CXXFunctionalCastExpr"
	BinaryOperator           Kind = "BinaryOperator"
	CompoundAssignOperator   Kind = "CompoundAssignOperator"
	UnaryOperator            Kind = "UnaryOperator"
	ConditionalOperator      Kind = "ConditionalOperator"
	DeclRefExpr              Kind = "DeclRefExpr"
	MemberExpr               Kind = "MemberExpr"
	ArraySubscriptExpr       Kind = "ArraySubscriptExpr"
	CallExpr                 Kind = "CallExpr"
	CXXMemberCallExpr        Kind = "CXXMemberCallExpr"
	CXXOperatorCallExpr      Kind = "CXXOperatorCallExpr"
	CXXConstructExpr         Kind = "CXXConstructExpr"
	CXXTemporaryObjectExpr   Kind = "CXXTemporaryObjectExpr"
	InitListExpr             Kind = "InitListExpr"
	ImplicitValueInitExpr    Kind = "ImplicitValueInitExpr"
	UnaryExprOrTypeTraitExpr Kind = "UnaryExprOrTypeTraitExpr"
	CXXThisExpr              Kind = "CXXThisExpr"
	CXXUuidofExpr            Kind = "CXXUuidofExpr"
	ConstantExpr             Kind = "ConstantExpr"
	ExprWithCleanups         Kind = "ExprWithCleanups"
	MaterializeTemporaryExpr Kind = "MaterializeTemporaryExpr"
	CXXBindTemporaryExpr     Kind = "CXXBindTemporaryExpr"
	CXXDefaultArgExpr        Kind = "CXXDefaultArgExpr"
	CXXNewExpr               Kind = "CXXNewExpr"
	CXXDeleteExpr            Kind = "CXXDeleteExpr"
	StmtExpr                 Kind = "StmtExpr"
)

// Other node kinds
const (
	CXXCtorInitializer    Kind = "CXXCtorInitializer"
	MacroDefinitionRecord Kind = "MacroDefinitionRecord"
	MacroExpansion        Kind = "MacroExpansion"
	InclusionDirective    Kind = "InclusionDirective"
)

// Category partitions node kinds
type Category int

const (
	CategoryOther Category = iota
	CategoryDecl
	CategoryStmt
	CategoryExpr
	CategoryPreprocessing
)

func (c Category) String() string {
	switch c {
	case CategoryDecl:
		return "Decl"
	case CategoryStmt:
		return "Stmt"
	case CategoryExpr:
		return "Expr"
	case CategoryPreprocessing:
		return "Preprocessing"
	default:
		return "Other"
	}
}

var explicitCategories = map[Kind]Category{
	CXXCtorInitializer:     CategoryOther,
	MacroDefinitionRecord:  CategoryPreprocessing,
	MacroExpansion:         CategoryPreprocessing,
	InclusionDirective:     CategoryPreprocessing,
	BinaryOperator:         CategoryExpr,
	CompoundAssignOperator: CategoryExpr,
	UnaryOperator:          CategoryExpr,
	ConditionalOperator:    CategoryExpr,
	IntegerLiteral:         CategoryExpr,
	FloatingLiteral:        CategoryExpr,
	CharacterLiteral:       CategoryExpr,
	StringLiteral:          CategoryExpr,
}

// Category classifies k. Kinds outside the constant set are classified by
// their clang suffix.
func (k Kind) Category() Category {
	if c, ok := explicitCategories[k]; ok {
		return c
	}
	s := string(k)
	switch {
	case strings.HasSuffix(s, "Decl"):
		return CategoryDecl
	case strings.HasSuffix(s, "Stmt"):
		return CategoryStmt
	case strings.HasSuffix(s, "Expr"), strings.HasSuffix(s, "Operator"), strings.HasSuffix(s, "Literal"):
		return CategoryExpr
	case strings.HasSuffix(s, "Directive"), strings.HasPrefix(s, "Macro"):
		return CategoryPreprocessing
	default:
		return CategoryOther
	}
}
