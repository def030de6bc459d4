// Package hclgraph loads expression graphs from HCL descriptions.
//
// A description declares leaves and operations by name, wires operations by
// referencing other nodes as bare identifiers, and names the loss:
//
//	param "w" {
//	  value = 0.5
//	}
//	input "x" {}
//	input "neg_y" {}
//
//	op "wx" {
//	  kind     = "mul_param"
//	  operands = [x, w]
//	}
//	op "pred" {
//	  kind     = "sin"
//	  operands = [wx]
//	}
//	op "diff" {
//	  kind     = "sum"
//	  operands = [pred, neg_y]
//	}
//	op "sq" {
//	  kind     = "pow"
//	  operands = [diff]
//	  exponent = 2
//	}
//	op "l" {
//	  kind     = "loss"
//	  operands = [sq]
//	}
//
//	outputs = [pred]
//	loss    = l
//
//	training {
//	  optimizer = "rms"
//	  lr        = 0.05
//	  epochs    = 100
//	}
//
//	sample {
//	  x     = 0.5
//	  neg_y = -0.48
//	}
//
// Every node is declared before any is wired, so references may point
// forward and a description can express a cycle; the graph constructor
// rejects it.
package hclgraph
