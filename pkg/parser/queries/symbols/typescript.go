// Package symbols holds the tree-sitter queries run against generated
// declaration text.
package symbols

// TSQueries matches the declarations an ambient declaration file can hold.
//
// Each pattern captures:
//   - @<kind>.name - The declared name
//   - @<kind>.definition - The whole declaration node (for location)
const TSQueries = `
; ============================================================================
; Scopes
; ============================================================================

; declare module "name" { ... }
(module
  name: (_) @module.name
) @module.definition

; namespace Name { ... }
(internal_module
  name: (_) @namespace.name
) @namespace.definition

; ============================================================================
; Types
; ============================================================================

(class_declaration
  name: (type_identifier) @class.name
) @class.definition

(abstract_class_declaration
  name: (type_identifier) @class.name
) @class.definition

(interface_declaration
  name: (type_identifier) @interface.name
) @interface.definition

(enum_declaration
  name: (identifier) @enum.name
) @enum.definition

(type_alias_declaration
  name: (type_identifier) @type.name
) @type.definition

; ============================================================================
; Values
; ============================================================================

; function name(a: T): R;
(function_signature
  name: (identifier) @function.name
) @function.definition

; let name: T; / const name: T;
(lexical_declaration
  (variable_declarator
    name: (identifier) @variable.name
  )
) @variable.definition

; ============================================================================
; Members
; ============================================================================

(method_signature
  name: (_) @method.name
) @method.definition

(public_field_definition
  name: (_) @field.name
) @field.definition

(property_signature
  name: (_) @field.name
) @field.definition
`

// TSReferenceQueries matches every named type reference. A class extends
// clause holds an expression, so its base is a plain identifier.
const TSReferenceQueries = `
(type_identifier) @reference.name

(extends_clause
  (identifier) @reference.name
)
`
